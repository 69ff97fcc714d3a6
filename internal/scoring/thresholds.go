package scoring

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoThresholds means the input had no usable percentile -> score entry.
	ErrNoThresholds = errors.New("no valid thresholds")
	// ErrThresholdSyntax means the input was not a mapping at all.
	ErrThresholdSyntax = errors.New("malformed thresholds")
)

// Point is one control point of a threshold set.
type Point struct {
	Percentile float64 // fraction in [0,1] after normalization
	Score      float64
}

// Thresholds is a normalized, ascending list of control points that always
// covers both 0.0 and 1.0. Build one with NewThresholds or ParseThresholds.
type Thresholds []Point

// DefaultThresholds is used when no thresholds are configured.
func DefaultThresholds() Thresholds {
	return NewThresholds([]Point{
		{0.99, 10.0},
		{0.90, 9.5},
		{0.75, 8.75},
		{0.25, 7.5},
		{0.00, 6.0},
	})
}

// NewThresholds normalizes raw points: percentiles are clamped into [0,1],
// a later point replaces an earlier one with the same percentile, a 0.0
// point with the lowest score and a 1.0 point with the highest score are
// added when missing, and the result is sorted ascending.
// An empty input yields an empty set.
func NewThresholds(points []Point) Thresholds {
	if len(points) == 0 {
		return Thresholds{}
	}

	byKey := make(map[float64]float64, len(points)+2)
	order := make([]float64, 0, len(points)+2)
	lowest, highest := math.Inf(1), math.Inf(-1)

	for _, p := range points {
		key := clampUnit(p.Percentile)
		if _, dup := byKey[key]; !dup {
			order = append(order, key)
		}
		byKey[key] = p.Score
	}
	for _, s := range byKey {
		lowest = math.Min(lowest, s)
		highest = math.Max(highest, s)
	}

	if _, ok := byKey[0]; !ok {
		byKey[0] = lowest
		order = append(order, 0)
	}
	if _, ok := byKey[1]; !ok {
		byKey[1] = highest
		order = append(order, 1)
	}

	out := make(Thresholds, 0, len(order))
	for _, key := range order {
		out = append(out, Point{Percentile: key, Score: byKey[key]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Percentile < out[j].Percentile })
	return out
}

// String renders the set as a percent-keyed flow mapping, highest first,
// in a form ParseThresholds accepts.
func (t Thresholds) String() string {
	parts := make([]string, 0, len(t))
	for i := len(t) - 1; i >= 0; i-- {
		pct := strconv.FormatFloat(math.Round(t[i].Percentile*1e8)/1e6, 'f', -1, 64)
		score := strconv.FormatFloat(t[i].Score, 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("%q: %s", pct+"%", score))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

var percentKeyRe = regexp.MustCompile(`^\s*(\d+(\.\d+)?)\s*%?\s*$`)

// ParsePercentileKey converts a threshold key to a fraction in [0,1].
// Accepted shapes:
//
//   - float64 or int: values above 1 are percentages and are divided by 100
//   - string "0.9", "90" or "90%": divided by 100 when it has a "%" suffix
//     or its number is above 1
//
// The result is clamped into [0,1]. Any other shape reports ok=false.
func ParsePercentileKey(key any) (frac float64, ok bool) {
	switch k := key.(type) {
	case int:
		return parseNumericKey(float64(k))
	case int64:
		return parseNumericKey(float64(k))
	case float64:
		return parseNumericKey(k)
	case string:
		m := percentKeyRe.FindStringSubmatch(k)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		if strings.Contains(k, "%") || v > 1 {
			v /= 100
		}
		return clampUnit(v), true
	default:
		return 0, false
	}
}

func parseNumericKey(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v > 1 {
		v /= 100
	}
	return clampUnit(v), true
}

// ParseThresholds reads a percentile -> score mapping written as a JSON
// object or a flow mapping with bare or single-quoted keys, e.g.
//
//	{"99%": 10, 0.9: 9.5, 75: 8.75, '25%': 7.5}
//
// Entries whose key or score cannot be read are skipped. Blank input returns
// DefaultThresholds. Input that is not a mapping returns ErrThresholdSyntax;
// a mapping with no usable entries returns ErrNoThresholds.
func ParseThresholds(raw string) (Thresholds, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultThresholds(), nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThresholdSyntax, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: expected a mapping of percentile to score", ErrThresholdSyntax)
	}

	mapping := doc.Content[0]
	var points []Point
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		frac, ok := ParsePercentileKey(scalarKey(mapping.Content[i]))
		if !ok {
			continue
		}
		score, ok := scalarScore(mapping.Content[i+1])
		if !ok {
			continue
		}
		points = append(points, Point{Percentile: frac, Score: score})
	}

	if len(points) == 0 {
		return nil, ErrNoThresholds
	}
	return NewThresholds(points), nil
}

// scalarKey maps a YAML key node onto the shapes ParsePercentileKey knows.
func scalarKey(n *yaml.Node) any {
	if n.Kind != yaml.ScalarNode {
		return nil
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil
		}
		return v
	case "!!str":
		return n.Value
	default:
		return nil
	}
}

// scalarScore accepts numeric scores and numeric strings ("9.5").
func scalarScore(n *yaml.Node) (float64, bool) {
	if n.Kind != yaml.ScalarNode {
		return 0, false
	}
	switch n.ShortTag() {
	case "!!int", "!!float", "!!str":
	default:
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(n.Value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
