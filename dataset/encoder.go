package dataset

import (
	"sort"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// LabelEncoder maps class labels to 0..k-1 by sorted order of the distinct
// values, so "B" -> 0 and "M" -> 1 for the diagnosis column.
type LabelEncoder struct {
	classes []string
	index   map[string]float64
}

// NewLabelEncoder derives an encoder from the observed label values.
func NewLabelEncoder(labels []string) *LabelEncoder {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	index := make(map[string]float64, len(classes))
	for i, c := range classes {
		index[c] = float64(i)
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns the distinct label values in encoding order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Encode maps label strings to their numeric codes.
func (e *LabelEncoder) Encode(labels []string) ([]float64, error) {
	out := make([]float64, len(labels))
	for i, l := range labels {
		code, ok := e.index[l]
		if !ok {
			return nil, errors.Newf("unknown label %q", l)
		}
		out[i] = code
	}
	return out, nil
}

// Decode maps numeric codes back to label strings.
func (e *LabelEncoder) Decode(codes []float64) ([]string, error) {
	out := make([]string, len(codes))
	for i, c := range codes {
		idx := int(c)
		if idx < 0 || idx >= len(e.classes) || float64(idx) != c {
			return nil, errors.Newf("unknown label code %v", c)
		}
		out[i] = e.classes[idx]
	}
	return out, nil
}
