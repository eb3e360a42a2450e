package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// BlobClient is the narrow interface to the remote object store. Identity on
// the remote side is the (containerName, fileName) pair.
type BlobClient interface {
	// Upload mirrors a local file to the remote store, replacing any prior
	// content under the same name.
	Upload(ctx context.Context, localPath, containerName, fileName string) error
	// Download fetches a remote blob to a local path.
	Download(ctx context.Context, containerName, fileName, localPath string) error
}

// AzureBlobClient implements BlobClient against Azure Blob Storage.
type AzureBlobClient struct {
	client *azblob.Client
}

// NewAzureBlobClient builds a client from a connection string sourced once
// at process start.
func NewAzureBlobClient(connectionString string) (*AzureBlobClient, error) {
	if connectionString == "" {
		return nil, errors.New("object-storage connection string is empty")
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating blob client")
	}
	return &AzureBlobClient{client: client}, nil
}

// Upload replaces the remote blob content with the local file.
func (c *AzureBlobClient) Upload(ctx context.Context, localPath, containerName, fileName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", localPath)
	}
	defer file.Close()

	if _, err := c.client.UploadFile(ctx, containerName, fileName, file, nil); err != nil {
		return errors.Wrapf(err, "uploading %s to %s/%s", localPath, containerName, fileName)
	}
	return nil
}

// Download fetches a remote blob into localPath.
func (c *AzureBlobClient) Download(ctx context.Context, containerName, fileName, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", localPath)
	}
	file, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", localPath)
	}
	defer file.Close()

	if _, err := c.client.DownloadFile(ctx, containerName, fileName, file, nil); err != nil {
		return errors.Wrapf(err, "downloading %s/%s", containerName, fileName)
	}
	return nil
}
