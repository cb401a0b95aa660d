// Package images stores product photos in a GCS bucket and hands back durable
// public URLs. Assumes the bucket grants allUsers object-viewer access, so no
// per-object ACL work is needed.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

type Uploader struct {
	Client *storage.Client
	Bucket string
	// PublicBaseURL defaults to https://storage.googleapis.com when empty.
	PublicBaseURL string
}

// Upload writes the blob under products/{productID}/ and returns its public
// retrieval URL.
func (u *Uploader) Upload(ctx context.Context, productID, filename, contentType string, r io.Reader) (string, error) {
	if u == nil || u.Client == nil {
		return "", errors.New("images: storage client not configured")
	}
	bucket := strings.TrimSpace(u.Bucket)
	if bucket == "" {
		return "", errors.New("images: bucket not configured")
	}

	ext := path.Ext(filename)
	object := fmt.Sprintf("products/%s/%d-%s%s", productID, time.Now().UTC().Unix(), uuid.NewString()[:8], ext)

	w := u.Client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("images: upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("images: upload %s: %w", object, err)
	}

	base := u.PublicBaseURL
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, object), nil
}

// Delete removes an object; a missing object is not an error.
func (u *Uploader) Delete(ctx context.Context, object string) error {
	if u == nil || u.Client == nil {
		return errors.New("images: storage client not configured")
	}
	err := u.Client.Bucket(u.Bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}
