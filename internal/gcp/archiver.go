package gcp

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
)

// UploadArchiver keeps a copy of every accepted upload in a GCS bucket,
// one object per document under its ID.
type UploadArchiver struct {
	bucket *storage.BucketHandle
}

// NewUploadArchiver builds an archiver over an existing storage client.
func NewUploadArchiver(client *storage.Client, bucketName string) *UploadArchiver {
	return &UploadArchiver{bucket: client.Bucket(bucketName)}
}

// Archive stores the original PDF bytes under <documentID>/<filename>.
// Re-archiving an existing object is a no-op.
func (a *UploadArchiver) Archive(ctx context.Context, documentID, filename string, data []byte) error {
	objectName := path.Join(documentID, path.Base(filename))
	if err := SaveToGCSAtomically(ctx, a.bucket, objectName, data); err != nil {
		return fmt.Errorf("archiving %s: %w", objectName, err)
	}
	return nil
}
