package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePercentileKeyShapes(t *testing.T) {
	tests := []struct {
		name string
		key  any
		want float64
		ok   bool
	}{
		{"percent string", "90%", 0.9, true},
		{"integer", 90, 0.9, true},
		{"fraction", 0.9, 0.9, true},
		{"fraction string", "0.9", 0.9, true},
		{"percent number string", "90", 0.9, true},
		{"padded percent", "  75 % ", 0.75, true},
		{"one is a fraction", 1, 1.0, true},
		{"one percent", "1%", 0.01, true},
		{"hundred", 100.0, 1.0, true},
		{"over hundred clamps", 250, 1.0, true},
		{"negative clamps", -0.5, 0.0, true},
		{"int64", int64(25), 0.25, true},
		{"negative string rejected", "-5", 0, false},
		{"word rejected", "top", 0, false},
		{"bool rejected", true, 0, false},
		{"nil rejected", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePercentileKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}

func TestParsePercentileKeyEquivalentForms(t *testing.T) {
	a, _ := ParsePercentileKey("90%")
	b, _ := ParsePercentileKey(90)
	c, _ := ParsePercentileKey(0.9)
	assert.Equal(t, 0.9, a)
	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestNewThresholdsAddsBoundaries(t *testing.T) {
	th := NewThresholds([]Point{{0.5, 8}, {0.8, 9}})
	require.Len(t, th, 4)
	assert.Equal(t, Point{0, 8}, th[0])
	assert.Equal(t, Point{0.5, 8}, th[1])
	assert.Equal(t, Point{0.8, 9}, th[2])
	assert.Equal(t, Point{1, 9}, th[3])
}

func TestNewThresholdsClampsAndDedupes(t *testing.T) {
	th := NewThresholds([]Point{{1.0, 9}, {1.7, 10}, {-3, 5}, {0.5, 7}})
	require.Len(t, th, 3)
	assert.Equal(t, Point{0, 5}, th[0])
	assert.Equal(t, Point{0.5, 7}, th[1])
	// the clamped 1.7 entry was written last and wins
	assert.Equal(t, Point{1, 10}, th[2])
}

func TestNewThresholdsEmpty(t *testing.T) {
	assert.Empty(t, NewThresholds(nil))
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	want := Thresholds{
		{0, 6}, {0.25, 7.5}, {0.75, 8.75}, {0.9, 9.5}, {0.99, 10}, {1, 10},
	}
	assert.Equal(t, want, th)
}

func TestParseThresholdsFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json", `{"99%": 10, "90%": 9.5, "75%": 8.75, "25%": 7.5, "0%": 6}`},
		{"json compact", `{"99%":10,"90%":9.5,"75%":8.75,"25%":7.5,"0%":6}`},
		{"bare fractions", `{0.99: 10.0, 0.9: 9.5, 0.75: 8.75, 0.25: 7.5, 0.0: 6.0}`},
		{"bare percents", `{99: 10, 90: 9.5, 75: 8.75, 25: 7.5, 0: 6}`},
		{"single quoted", `{'99%': 10, '90%': 9.5, '75%': 8.75, '25%': 7.5, '0%': 6}`},
		{"string scores", `{"99%": "10", "90%": "9.5", "75%": "8.75", "25%": "7.5", "0%": "6"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := ParseThresholds(tt.raw)
			require.NoError(t, err)
			require.Len(t, th, 6)
			for i, p := range DefaultThresholds() {
				assert.InDelta(t, p.Percentile, th[i].Percentile, 1e-12, "point %d percentile", i)
				assert.Equal(t, p.Score, th[i].Score, "point %d score", i)
			}
		})
	}
}

func TestParseThresholdsBlankUsesDefault(t *testing.T) {
	th, err := ParseThresholds("   ")
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), th)
}

func TestParseThresholdsSkipsBadEntries(t *testing.T) {
	th, err := ParseThresholds(`{"top": 10, "50%": "high", "80%": 9, "20%": 7}`)
	require.NoError(t, err)
	assert.Equal(t, Thresholds{{0, 7}, {0.2, 7}, {0.8, 9}, {1, 9}}, th)
}

func TestParseThresholdsErrors(t *testing.T) {
	_, err := ParseThresholds(`{"90%": 9.5`)
	assert.True(t, errors.Is(err, ErrThresholdSyntax), "unterminated mapping: %v", err)

	_, err = ParseThresholds(`[1, 2, 3]`)
	assert.True(t, errors.Is(err, ErrThresholdSyntax), "sequence: %v", err)

	_, err = ParseThresholds(`just words`)
	assert.True(t, errors.Is(err, ErrThresholdSyntax), "scalar: %v", err)

	_, err = ParseThresholds(`{"best": 10, "worst": 6}`)
	assert.ErrorIs(t, err, ErrNoThresholds)

	_, err = ParseThresholds(`{}`)
	assert.ErrorIs(t, err, ErrNoThresholds)
}

func TestThresholdsStringRoundTrip(t *testing.T) {
	th := DefaultThresholds()
	s := th.String()
	assert.Equal(t, `{"100%": 10, "99%": 10, "90%": 9.5, "75%": 8.75, "25%": 7.5, "0%": 6}`, s)

	back, err := ParseThresholds(s)
	require.NoError(t, err)
	assert.Equal(t, th, back)
}
