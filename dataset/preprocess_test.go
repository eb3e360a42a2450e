package dataset

import (
	"testing"
)

func rawTestFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		[]string{"id", "diagnosis", "radius_mean", "texture_mean"},
		[][]string{
			{"842302", "M", "17.99", "10.38"},
			{"842517", "B", "20.57", "17.77"},
			{"84300903", "M", "19.69", "21.25"},
		},
	)
	if err != nil {
		t.Fatalf("NewFrame() unexpected error: %v", err)
	}
	return f
}

func TestPreprocess(t *testing.T) {
	pre, err := Preprocess(rawTestFrame(t))
	if err != nil {
		t.Fatalf("Preprocess() unexpected error: %v", err)
	}

	if pre.HasColumn("id") {
		t.Error("Preprocess() kept the id column")
	}
	columns := pre.Columns()
	if columns[len(columns)-1] != LabelColumn {
		t.Errorf("Preprocess() columns = %v, want %q last", columns, LabelColumn)
	}
	if pre.NumRows() != 3 {
		t.Errorf("Preprocess() rows = %d, want 3", pre.NumRows())
	}
	// Label values survive untouched.
	labels, err := pre.Column(LabelColumn)
	if err != nil {
		t.Fatalf("Column() unexpected error: %v", err)
	}
	for i, want := range []string{"M", "B", "M"} {
		if labels[i] != want {
			t.Errorf("label[%d] = %q, want %q", i, labels[i], want)
		}
	}
}

func TestPreprocessMissingLabel(t *testing.T) {
	f, _ := NewFrame([]string{"id", "x"}, [][]string{{"1", "2"}})
	if _, err := Preprocess(f); err == nil {
		t.Fatal("Preprocess() expected error for missing label column, got nil")
	}
}

func TestPreprocessNonBinaryLabel(t *testing.T) {
	f, _ := NewFrame(
		[]string{"id", "diagnosis", "x"},
		[][]string{{"1", "M", "0.1"}, {"2", "B", "0.2"}, {"3", "U", "0.3"}},
	)
	if _, err := Preprocess(f); err == nil {
		t.Fatal("Preprocess() expected error for non-binary label, got nil")
	}
}

func TestPreprocessEmpty(t *testing.T) {
	f, _ := NewFrame([]string{"id", "diagnosis"}, nil)
	if _, err := Preprocess(f); err == nil {
		t.Fatal("Preprocess() expected error for empty frame, got nil")
	}
}
