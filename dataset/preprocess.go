package dataset

import (
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// LabelColumn is the binary diagnosis column of the breast-cancer dataset.
const LabelColumn = "diagnosis"

// idColumn carries no signal and is dropped during preprocessing.
const idColumn = "id"

// Preprocess prepares the raw dataset for splitting: the id column is
// dropped and the label column is moved to the last position so that
// dataframe consumers treat it as the class attribute. The label must be
// present and binary.
func Preprocess(raw *Frame) (*Frame, error) {
	if raw.NumRows() == 0 {
		return nil, errors.ErrEmptyData
	}
	if !raw.HasColumn(LabelColumn) {
		return nil, errors.Newf("label column %q not found", LabelColumn)
	}

	pre := raw.Drop(idColumn)

	var ordered []string
	for _, c := range pre.Columns() {
		if c != LabelColumn {
			ordered = append(ordered, c)
		}
	}
	ordered = append(ordered, LabelColumn)
	pre, err := pre.Select(ordered...)
	if err != nil {
		return nil, err
	}

	labels, err := pre.Column(LabelColumn)
	if err != nil {
		return nil, err
	}
	if n := len(NewLabelEncoder(labels).Classes()); n != 2 {
		return nil, errors.Newf("label column %q must be binary, found %d distinct values", LabelColumn, n)
	}
	return pre, nil
}
