// Package export reads and writes ranked tier lists as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/abelbrown/albumtier/internal/album"
	"github.com/abelbrown/albumtier/internal/pipeline"
)

// Header is the column layout written by WriteCSV.
var Header = []string{"rank", "score", "album", "artists", "tracks_in_playlist", "album_url", "album_id"}

// ErrMissingColumn is returned by ReadCSV when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// WriteCSV writes results with a header row.
func WriteCSV(w io.Writer, results []pipeline.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Rank),
			strconv.FormatFloat(r.Score, 'f', -1, 64),
			r.Album.Name,
			r.Album.Artists,
			strconv.Itoa(r.Album.Count()),
			r.Album.URL,
			r.Album.ID,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", r.Rank, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile creates (or truncates) path and writes results to it.
func WriteFile(path string, results []pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV loads a previously exported ranking. Columns are matched by
// header name. Rows missing the album name or with an unparseable track
// count are skipped and reported in warnings. When every kept row has a
// valid rank the albums are ordered by it; otherwise file order is kept.
// Track titles are not stored, so placeholders stand in for them.
func ReadCSV(r io.Reader) (albums []album.Album, warnings []error, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return []album.Album{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range []string{"album", "tracks_in_playlist"} {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("read header: %w: %s", ErrMissingColumn, name)
		}
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	type ranked struct {
		album.Album
		rank int
	}
	var rows []ranked
	byRank := true

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				warnings = append(warnings, fmt.Errorf("line %d: %w", line, err))
				continue
			}
			return nil, warnings, fmt.Errorf("read row: %w", err)
		}

		name := field(rec, "album")
		if name == "" {
			warnings = append(warnings, fmt.Errorf("line %d: empty album name, skipped", line))
			continue
		}
		count, err := strconv.Atoi(field(rec, "tracks_in_playlist"))
		if err != nil || count < 0 {
			warnings = append(warnings, fmt.Errorf("line %d: bad tracks_in_playlist %q, skipped", line, field(rec, "tracks_in_playlist")))
			continue
		}

		rank, err := strconv.Atoi(field(rec, "rank"))
		if err != nil {
			byRank = false
		}
		rows = append(rows, ranked{
			Album: album.Album{
				ID:      field(rec, "album_id"),
				Name:    name,
				Artists: field(rec, "artists"),
				URL:     field(rec, "album_url"),
				Tracks:  album.PlaceholderTracks(count),
			},
			rank: rank,
		})
	}

	if byRank {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].rank < rows[j].rank })
	}
	albums = make([]album.Album, len(rows))
	for i, row := range rows {
		albums[i] = row.Album
	}
	return albums, warnings, nil
}

// ReadFile opens path and calls ReadCSV.
func ReadFile(path string) ([]album.Album, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// FindCSV lists the *.csv files directly inside dir, sorted by name.
func FindCSV(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("glob csv: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
