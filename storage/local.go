// Package storage persists pipeline artifacts: every preprocessed dataset is
// written to local storage and mirrored to a remote object store under a
// parallel naming scheme. Later pipeline stages re-read from local storage,
// decoupling stages and allowing a run to restart from disk.
package storage

import (
	"os"
	"path/filepath"

	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// LocalStore materializes frames as CSV files on the local filesystem.
type LocalStore struct{}

// StoreFrame writes the frame to path, replacing any existing file whole.
func (LocalStore) StoreFrame(f *dataset.Frame, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer file.Close()

	if err := f.WriteCSV(file); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.WithStack(file.Sync())
}

// LoadFrame reads a frame previously written by StoreFrame.
func (LocalStore) LoadFrame(path string) (*dataset.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	f, err := dataset.ReadCSV(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return f, nil
}

// Exists reports whether a file is present at path.
func (LocalStore) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
