// Package dataset holds the tabular data model shared by all pipelines: an
// ordered column-oriented frame materialized as CSV, plus the preprocessing
// applied to the raw breast-cancer dataset before splitting.
package dataset

import (
	"encoding/csv"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// Frame is an ordered sequence of rows over named columns. Cells are kept in
// their CSV string form; numeric views are parsed on demand. A Frame is
// regenerated whole on every pipeline run and never mutated in place.
type Frame struct {
	columns []string
	rows    [][]string
}

// NewFrame creates a frame from a header and rows. Every row must match the
// header width.
func NewFrame(columns []string, rows [][]string) (*Frame, error) {
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.NewDimensionError("NewFrame", len(columns), len(row), 1)
		}
	}
	return &Frame{columns: columns, rows: rows}, nil
}

// Columns returns the ordered column names.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return len(f.rows)
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []string {
	out := make([]string, len(f.rows[i]))
	copy(out, f.rows[i])
	return out
}

func (f *Frame) columnIndex(name string) (int, error) {
	for i, c := range f.columns {
		if c == name {
			return i, nil
		}
	}
	return 0, errors.Newf("column %q not found", name)
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx, err := f.columnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(f.rows))
	for i, row := range f.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// HasColumn reports whether the frame has the named column.
func (f *Frame) HasColumn(name string) bool {
	_, err := f.columnIndex(name)
	return err == nil
}

// Select returns a new frame containing only the named columns, in the given
// order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		j, err := f.columnIndex(n)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	rows := make([][]string, len(f.rows))
	for i, row := range f.rows {
		out := make([]string, len(idx))
		for k, j := range idx {
			out[k] = row[j]
		}
		rows[i] = out
	}
	return &Frame{columns: append([]string(nil), names...), rows: rows}, nil
}

// Drop returns a new frame without the named columns. Unknown names are
// ignored.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []string
	for _, c := range f.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := f.Select(keep...)
	return out
}

// Subset returns a new frame containing the rows at the given indices, in
// order.
func (f *Frame) Subset(indices []int) *Frame {
	rows := make([][]string, len(indices))
	for i, idx := range indices {
		rows[i] = f.rows[idx]
	}
	return &Frame{columns: append([]string(nil), f.columns...), rows: rows}
}

// FeatureMatrix splits the frame into a numeric feature matrix and an encoded
// label vector. Every non-label column must parse as a float; label values
// are encoded by the returned encoder (sorted distinct values mapped to
// 0..k-1).
func (f *Frame) FeatureMatrix(label string) (*mat.Dense, []float64, *LabelEncoder, error) {
	if f.NumRows() == 0 {
		return nil, nil, nil, errors.ErrEmptyData
	}
	labelIdx, err := f.columnIndex(label)
	if err != nil {
		return nil, nil, nil, err
	}

	labels, _ := f.Column(label)
	enc := NewLabelEncoder(labels)
	y, err := enc.Encode(labels)
	if err != nil {
		return nil, nil, nil, err
	}

	nFeatures := len(f.columns) - 1
	data := make([]float64, 0, len(f.rows)*nFeatures)
	for _, row := range f.rows {
		for j, cell := range row {
			if j == labelIdx {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, nil, errors.Wrapf(err, "parsing column %q", f.columns[j])
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(f.rows), nFeatures, data), y, enc, nil
}

// Matrix parses every column as a float feature matrix. A frame with no
// rows yields a nil matrix.
func (f *Frame) Matrix() (*mat.Dense, error) {
	if f.NumRows() == 0 {
		return nil, nil
	}
	c := len(f.columns)
	data := make([]float64, 0, len(f.rows)*c)
	for i, row := range f.rows {
		for j, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing row %d column %q", i, f.columns[j])
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(f.rows), c, data), nil
}

// FrameFromMatrix builds a numeric frame from a matrix, formatting cells so
// that a store/reload round trip is value-exact. A nil matrix yields an
// empty frame with only the header.
func FrameFromMatrix(columns []string, X *mat.Dense) (*Frame, error) {
	if X == nil {
		return &Frame{columns: append([]string(nil), columns...)}, nil
	}
	r, c := X.Dims()
	if c != len(columns) {
		return nil, errors.NewDimensionError("FrameFromMatrix", len(columns), c, 1)
	}
	rows := make([][]string, r)
	for i := 0; i < r; i++ {
		row := make([]string, c)
		for j := 0; j < c; j++ {
			row[j] = strconv.FormatFloat(X.At(i, j), 'g', -1, 64)
		}
		rows[i] = row
	}
	return &Frame{columns: append([]string(nil), columns...), rows: rows}, nil
}

// FrameFromVector builds a single-column numeric frame.
func FrameFromVector(column string, values []float64) *Frame {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{strconv.FormatFloat(v, 'g', -1, 64)}
	}
	return &Frame{columns: []string{column}, rows: rows}
}

// Vector parses a single-column frame back into a float slice.
func (f *Frame) Vector() ([]float64, error) {
	if len(f.columns) != 1 {
		return nil, errors.NewDimensionError("Frame.Vector", 1, len(f.columns), 1)
	}
	out := make([]float64, len(f.rows))
	for i, row := range f.rows {
		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing row %d", i)
		}
		out[i] = v
	}
	return out, nil
}

// WriteCSV writes the frame with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.columns); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, row := range f.rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}
	cw.Flush()
	return errors.WithStack(cw.Error())
}

// ReadCSV reads a frame written by WriteCSV (header row required).
func ReadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "reading csv")
	}
	if len(records) == 0 {
		return nil, errors.ErrEmptyData
	}
	return &Frame{columns: records[0], rows: records[1:]}, nil
}
