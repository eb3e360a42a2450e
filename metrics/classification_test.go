package metrics

import (
	"math"
	"testing"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect prediction",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{0, 1, 1, 0},
			want:  1.0,
		},
		{
			name:  "All wrong",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{1, 0, 0, 1},
			want:  0.0,
		},
		{
			name:  "Half right",
			yTrue: []float64{0, 1, 1, 0},
			yPred: []float64{0, 1, 0, 1},
			want:  0.5,
		},
		{
			name:    "Empty input",
			yTrue:   nil,
			yPred:   nil,
			wantErr: true,
		},
		{
			name:    "Length mismatch",
			yTrue:   []float64{0, 1},
			yPred:   []float64{0},
			wantErr: true,
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 0.5},
			yPred:   []float64{0, 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Accuracy() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Accuracy() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Accuracy must be exactly 1 iff the sequences are elementwise equal.
func TestAccuracyOneIffEqual(t *testing.T) {
	yTrue := []float64{1, 0, 1, 1, 0, 0}
	equal := append([]float64(nil), yTrue...)

	got, err := Accuracy(yTrue, equal)
	if err != nil {
		t.Fatalf("Accuracy() unexpected error: %v", err)
	}
	if got != 1.0 {
		t.Errorf("Accuracy() on equal sequences = %v, want 1.0", got)
	}

	offByOne := append([]float64(nil), yTrue...)
	offByOne[3] = 0
	got, err = Accuracy(yTrue, offByOne)
	if err != nil {
		t.Fatalf("Accuracy() unexpected error: %v", err)
	}
	if got >= 1.0 {
		t.Errorf("Accuracy() on unequal sequences = %v, want < 1.0", got)
	}
}

func TestPrecisionRecall(t *testing.T) {
	tests := []struct {
		name          string
		yTrue         []float64
		yPred         []float64
		wantPrecision float64
		wantRecall    float64
	}{
		{
			name:          "Mixed outcome",
			yTrue:         []float64{1, 1, 0, 0, 1},
			yPred:         []float64{1, 0, 1, 0, 1},
			wantPrecision: 2.0 / 3.0,
			wantRecall:    2.0 / 3.0,
		},
		{
			name:          "No predicted positives",
			yTrue:         []float64{1, 0, 1},
			yPred:         []float64{0, 0, 0},
			wantPrecision: 0,
			wantRecall:    0,
		},
		{
			name:          "No true positives",
			yTrue:         []float64{0, 0, 0},
			yPred:         []float64{1, 0, 1},
			wantPrecision: 0,
			wantRecall:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			precision, err := Precision(tt.yTrue, tt.yPred)
			if err != nil {
				t.Fatalf("Precision() unexpected error: %v", err)
			}
			if math.Abs(precision-tt.wantPrecision) > 1e-12 {
				t.Errorf("Precision() = %v, want %v", precision, tt.wantPrecision)
			}

			recall, err := Recall(tt.yTrue, tt.yPred)
			if err != nil {
				t.Fatalf("Recall() unexpected error: %v", err)
			}
			if math.Abs(recall-tt.wantRecall) > 1e-12 {
				t.Errorf("Recall() = %v, want %v", recall, tt.wantRecall)
			}
		})
	}
}

func TestF1Score(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0, 1}
	yPred := []float64{1, 0, 1, 0, 1}

	got, err := F1Score(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1Score() unexpected error: %v", err)
	}
	// precision = recall = 2/3, harmonic mean = 2/3
	if math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("F1Score() = %v, want %v", got, 2.0/3.0)
	}

	// Both components zero: defined as 0.
	got, err = F1Score([]float64{1, 1}, []float64{0, 0})
	if err != nil {
		t.Fatalf("F1Score() unexpected error: %v", err)
	}
	if got != 0 {
		t.Errorf("F1Score() with zero precision and recall = %v, want 0", got)
	}
}

func TestAllWarnsOncePerMetric(t *testing.T) {
	var warnings []string
	errors.SetWarningHandler(func(w error) {
		var undefined *errors.UndefinedMetricWarning
		if errors.As(w, &undefined) {
			warnings = append(warnings, undefined.Metric)
		}
	})
	defer errors.SetWarningHandler(nil)

	// All predictions and all labels negative: both precision and recall are
	// ill-defined.
	_, err := All([]float64{0, 0, 0}, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("All() unexpected error: %v", err)
	}

	counts := make(map[string]int)
	for _, m := range warnings {
		counts[m]++
	}
	if counts[PrecisionKey] != 1 {
		t.Errorf("precision warned %d times, want exactly 1", counts[PrecisionKey])
	}
	if counts[RecallKey] != 1 {
		t.Errorf("recall warned %d times, want exactly 1", counts[RecallKey])
	}
}

func TestAllReportInRange(t *testing.T) {
	yTrue := []float64{1, 0, 1, 1, 0, 0, 1, 0}
	yPred := []float64{1, 0, 0, 1, 1, 0, 1, 0}

	report, err := All(yTrue, yPred)
	if err != nil {
		t.Fatalf("All() unexpected error: %v", err)
	}
	for _, key := range []string{AccuracyKey, PrecisionKey, RecallKey, F1ScoreKey} {
		v, ok := report[key]
		if !ok {
			t.Fatalf("All() report missing %q", key)
		}
		if v < 0 || v > 1 {
			t.Errorf("All() %s = %v, want value in [0, 1]", key, v)
		}
	}
}
