package spotify

type playlistResponse struct {
	Name  string `json:"name"`
	Owner struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"owner"`
}

type tracksPage struct {
	Items []playlistItem `json:"items"`
	Next  string         `json:"next"`
	Total int            `json:"total"`
}

type playlistItem struct {
	Track *trackObject `json:"track"`
}

type trackObject struct {
	Name  string       `json:"name"`
	Album *albumObject `json:"album"`
}

type albumObject struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}
