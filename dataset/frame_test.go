package dataset

import (
	"bytes"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewFrameWidthMismatch(t *testing.T) {
	_, err := NewFrame([]string{"a", "b"}, [][]string{{"1", "2"}, {"3"}})
	if err == nil {
		t.Fatal("NewFrame() expected error for ragged rows, got nil")
	}
}

func TestFrameSelectDrop(t *testing.T) {
	f, err := NewFrame(
		[]string{"id", "x", "diagnosis"},
		[][]string{{"1", "0.5", "M"}, {"2", "0.7", "B"}},
	)
	if err != nil {
		t.Fatalf("NewFrame() unexpected error: %v", err)
	}

	selected, err := f.Select("diagnosis", "x")
	if err != nil {
		t.Fatalf("Select() unexpected error: %v", err)
	}
	if got := selected.Columns(); got[0] != "diagnosis" || got[1] != "x" {
		t.Errorf("Select() columns = %v, want [diagnosis x]", got)
	}
	if got := selected.Row(0); got[0] != "M" || got[1] != "0.5" {
		t.Errorf("Select() row 0 = %v, want [M 0.5]", got)
	}

	dropped := f.Drop("id", "missing")
	if dropped.HasColumn("id") {
		t.Error("Drop() kept the id column")
	}
	if !dropped.HasColumn("x") || !dropped.HasColumn("diagnosis") {
		t.Errorf("Drop() columns = %v, want x and diagnosis kept", dropped.Columns())
	}

	if _, err := f.Select("nope"); err == nil {
		t.Error("Select() on unknown column expected error, got nil")
	}
}

func TestFrameSubset(t *testing.T) {
	f, _ := NewFrame([]string{"v"}, [][]string{{"a"}, {"b"}, {"c"}})
	sub := f.Subset([]int{2, 0})
	if sub.NumRows() != 2 {
		t.Fatalf("Subset() rows = %d, want 2", sub.NumRows())
	}
	if sub.Row(0)[0] != "c" || sub.Row(1)[0] != "a" {
		t.Errorf("Subset() rows = [%v %v], want [c a]", sub.Row(0), sub.Row(1))
	}
}

func TestFeatureMatrix(t *testing.T) {
	f, err := NewFrame(
		[]string{"x1", "x2", "diagnosis"},
		[][]string{
			{"1.5", "2.0", "M"},
			{"0.5", "1.0", "B"},
			{"2.5", "3.0", "M"},
		},
	)
	if err != nil {
		t.Fatalf("NewFrame() unexpected error: %v", err)
	}

	X, y, enc, err := f.FeatureMatrix("diagnosis")
	if err != nil {
		t.Fatalf("FeatureMatrix() unexpected error: %v", err)
	}
	if r, c := X.Dims(); r != 3 || c != 2 {
		t.Fatalf("FeatureMatrix() dims = (%d, %d), want (3, 2)", r, c)
	}
	if X.At(0, 0) != 1.5 || X.At(2, 1) != 3.0 {
		t.Errorf("FeatureMatrix() values wrong: %v", mat.Formatted(X))
	}
	// Sorted distinct classes: B -> 0, M -> 1.
	want := []float64{1, 0, 1}
	for i, v := range want {
		if y[i] != v {
			t.Errorf("FeatureMatrix() y[%d] = %v, want %v", i, y[i], v)
		}
	}
	if classes := enc.Classes(); classes[0] != "B" || classes[1] != "M" {
		t.Errorf("encoder classes = %v, want [B M]", classes)
	}
}

func TestFeatureMatrixNonNumeric(t *testing.T) {
	f, _ := NewFrame([]string{"x", "diagnosis"}, [][]string{{"oops", "M"}})
	if _, _, _, err := f.FeatureMatrix("diagnosis"); err == nil {
		t.Fatal("FeatureMatrix() expected parse error, got nil")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	f, err := NewFrame(
		[]string{"x1", "x2"},
		[][]string{{"1.25", "-3.5"}, {"0.001", "7"}},
	)
	if err != nil {
		t.Fatalf("NewFrame() unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() unexpected error: %v", err)
	}
	first := buf.String()

	reloaded, err := ReadCSV(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadCSV() unexpected error: %v", err)
	}

	var buf2 bytes.Buffer
	if err := reloaded.WriteCSV(&buf2); err != nil {
		t.Fatalf("WriteCSV() unexpected error: %v", err)
	}
	if buf2.String() != first {
		t.Errorf("round trip not byte-identical:\nfirst:  %q\nsecond: %q", first, buf2.String())
	}
}

func TestMatrixRoundTrip(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1.5, 0.1, -2.25, 1e-9})
	f, err := FrameFromMatrix([]string{"a", "b"}, X)
	if err != nil {
		t.Fatalf("FrameFromMatrix() unexpected error: %v", err)
	}

	back, err := f.Matrix()
	if err != nil {
		t.Fatalf("Matrix() unexpected error: %v", err)
	}
	if !mat.Equal(X, back) {
		t.Errorf("matrix round trip not value-exact:\nin:  %v\nout: %v",
			mat.Formatted(X), mat.Formatted(back))
	}
}

func TestFrameFromMatrixNil(t *testing.T) {
	f, err := FrameFromMatrix([]string{"a", "b"}, nil)
	if err != nil {
		t.Fatalf("FrameFromMatrix(nil) unexpected error: %v", err)
	}
	if f.NumRows() != 0 {
		t.Errorf("FrameFromMatrix(nil) rows = %d, want 0", f.NumRows())
	}
	X, err := f.Matrix()
	if err != nil {
		t.Fatalf("Matrix() unexpected error: %v", err)
	}
	if X != nil {
		t.Errorf("Matrix() of empty frame = %v, want nil", X)
	}
}

func TestVectorRoundTrip(t *testing.T) {
	values := []float64{0, 1, 1, 0.5}
	f := FrameFromVector("y", values)
	back, err := f.Vector()
	if err != nil {
		t.Fatalf("Vector() unexpected error: %v", err)
	}
	for i, v := range values {
		if back[i] != v {
			t.Errorf("Vector()[%d] = %v, want %v", i, back[i], v)
		}
	}

	wide, _ := NewFrame([]string{"a", "b"}, nil)
	if _, err := wide.Vector(); err == nil {
		t.Error("Vector() on two-column frame expected error, got nil")
	}
}

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder([]string{"M", "B", "M", "B", "B"})
	if classes := enc.Classes(); len(classes) != 2 || classes[0] != "B" || classes[1] != "M" {
		t.Fatalf("Classes() = %v, want [B M]", enc.Classes())
	}

	encoded, err := enc.Encode([]string{"B", "M", "B"})
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	want := []float64{0, 1, 0}
	for i := range want {
		if encoded[i] != want[i] {
			t.Errorf("Encode()[%d] = %v, want %v", i, encoded[i], want[i])
		}
	}

	decoded, err := enc.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() unexpected error: %v", err)
	}
	for i, s := range []string{"B", "M", "B"} {
		if decoded[i] != s {
			t.Errorf("Decode()[%d] = %q, want %q", i, decoded[i], s)
		}
	}

	if _, err := enc.Encode([]string{"X"}); err == nil {
		t.Error("Encode() on unknown label expected error, got nil")
	}
}
