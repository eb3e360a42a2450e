package storage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/pkg/log"
)

// Artifact is one named dataset with its local path and its parallel remote
// (container, fileName) identity. Artifacts are regenerated whole on every
// run and never mutated in place.
type Artifact struct {
	Frame         *dataset.Frame
	LocalPath     string
	ContainerName string
	FileName      string
}

// Bridge is the write-through cache over local and remote storage.
type Bridge struct {
	local LocalStore
	blob  BlobClient
}

// NewBridge wires the bridge to a blob client.
func NewBridge(blob BlobClient) *Bridge {
	return &Bridge{blob: blob}
}

// Local exposes the local store for stages that reload persisted artifacts.
func (b *Bridge) Local() LocalStore {
	return b.local
}

// EnsureRaw downloads the raw dataset only when the local path does not
// already exist; local existence is the cache check, so no remote call is
// made for a warm cache.
func (b *Bridge) EnsureRaw(ctx context.Context, localPath, containerName, fileName string) error {
	l := log.With("storage")
	if b.local.Exists(localPath) {
		l.Debug().Str("path", localPath).Msg("raw dataset present, skipping download")
		return nil
	}
	l.Info().
		Str("container", containerName).
		Str("file", fileName).
		Msg("fetching raw dataset")
	return b.blob.Download(ctx, containerName, fileName, localPath)
}

// PersistAll stores every artifact locally in parallel, waits for all writes,
// then mirrors every artifact to the remote store in parallel and waits
// again. Each artifact targets a distinct path and blob name, so the tasks
// share no state. The first failure in either fan-out aborts the whole
// batch.
func (b *Bridge) PersistAll(ctx context.Context, artifacts []Artifact) error {
	g, _ := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			return b.local.StoreFrame(a.Frame, a.LocalPath)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.NewPipelineError("persist-local", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, a := range artifacts {
		g.Go(func() error {
			return b.blob.Upload(gctx, a.LocalPath, a.ContainerName, a.FileName)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.NewPipelineError("mirror-remote", err)
	}
	l := log.With("storage")
	l.Info().Int("artifacts", len(artifacts)).Msg("artifacts persisted and mirrored")
	return nil
}
