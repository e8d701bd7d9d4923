// Package sink stores the files produced by a run: on local disk, in object
// storage, or both.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/glizzus/demovoice/internal/datalayer"
)

const (
	ContentTypeWAV = "audio/wav"
	ContentTypeOgg = "audio/ogg"
)

// Sink stores a named file.
type Sink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
}

// Dir writes files into a local directory, creating it if needed.
type Dir struct {
	Path string
}

var _ Sink = (*Dir)(nil)

func (d *Dir) Put(_ context.Context, name string, data []byte, _ string) error {
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder %s: %w", d.Path, err)
	}
	p := filepath.Join(d.Path, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// Blob uploads files to blob storage under a key prefix.
type Blob struct {
	Storage datalayer.BlobStorage
	Prefix  string
}

var _ Sink = (*Blob)(nil)

func (b *Blob) Put(ctx context.Context, name string, data []byte, contentType string) error {
	key := path.Join(b.Prefix, name)
	err := b.Storage.Put(ctx, key, bytes.NewReader(data), datalayer.PutOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// Tee stores every file in each sink in order, stopping at the first error.
type Tee []Sink

var _ Sink = Tee(nil)

func (t Tee) Put(ctx context.Context, name string, data []byte, contentType string) error {
	for _, s := range t {
		if err := s.Put(ctx, name, data, contentType); err != nil {
			return err
		}
	}
	return nil
}
