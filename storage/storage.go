// Package storage reads inputs and writes outputs on the local file system
// or in S3. References are plain paths, file:// URLs or s3://bucket/key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"minpdf/config"
)

const (
	fileScheme = "file://"
	s3Scheme   = "s3://"
)

// ErrNotConfigured is returned for s3:// references when no S3 backend was set up.
var ErrNotConfigured = errors.New("s3 storage not configured")

// Store is a flat blob store addressed by reference.
type Store interface {
	// Get reads a whole object. Missing objects match fs.ErrNotExist.
	Get(ctx context.Context, ref string) ([]byte, error)
	// Put replaces an object. Readers never see a partial object.
	Put(ctx context.Context, ref string, data []byte) error
	Exists(ctx context.Context, ref string) (bool, error)
	// List returns references to the objects directly inside dir whose
	// names start with prefix and end with ext, in lexical order.
	List(ctx context.Context, dir, prefix, ext string) ([]string, error)
}

// IsS3 reports whether ref names an S3 object.
func IsS3(ref string) bool {
	return strings.HasPrefix(ref, s3Scheme)
}

func localPath(ref string) string {
	return strings.TrimPrefix(ref, fileScheme)
}

// Split separates a reference into its directory and base name.
func Split(ref string) (dir, name string) {
	if IsS3(ref) {
		rest := strings.TrimPrefix(ref, s3Scheme)
		i := strings.LastIndex(rest, "/")
		if i < 0 {
			return ref, ""
		}
		return s3Scheme + rest[:i], rest[i+1:]
	}
	p := localPath(ref)
	return filepath.Dir(p), filepath.Base(p)
}

// Join places name inside dir.
func Join(dir, name string) string {
	if IsS3(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(localPath(dir), name)
}

// Resolve interprets ref relative to dir unless it is absolute or has a scheme.
func Resolve(dir, ref string) string {
	if IsS3(ref) || strings.HasPrefix(ref, fileScheme) || filepath.IsAbs(ref) {
		return ref
	}
	return Join(dir, ref)
}

// Router sends each reference to the backend its scheme names.
type Router struct {
	Local *Local
	S3    *S3
}

// NewRouter returns a router over the local file system and, when s3 is not
// nil, an S3 backend.
func NewRouter(s3 *S3) *Router {
	return &Router{Local: &Local{}, S3: s3}
}

func (r *Router) backend(ref string) (Store, error) {
	if IsS3(ref) {
		if r.S3 == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotConfigured, ref)
		}
		return r.S3, nil
	}
	return r.Local, nil
}

func (r *Router) Get(ctx context.Context, ref string) ([]byte, error) {
	b, err := r.backend(ref)
	if err != nil {
		return nil, err
	}
	return b.Get(ctx, ref)
}

func (r *Router) Put(ctx context.Context, ref string, data []byte) error {
	b, err := r.backend(ref)
	if err != nil {
		return err
	}
	return b.Put(ctx, ref, data)
}

func (r *Router) Exists(ctx context.Context, ref string) (bool, error) {
	b, err := r.backend(ref)
	if err != nil {
		return false, err
	}
	return b.Exists(ctx, ref)
}

func (r *Router) List(ctx context.Context, dir, prefix, ext string) ([]string, error) {
	b, err := r.backend(dir)
	if err != nil {
		return nil, err
	}
	return b.List(ctx, dir, prefix, ext)
}

// Open returns a router for refs, with an S3 backend only when one of them
// needs it.
func Open(ctx context.Context, cfg config.StorageConfig, refs ...string) (*Router, error) {
	for _, ref := range refs {
		if !IsS3(ref) {
			continue
		}
		s3, err := NewS3(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewRouter(s3), nil
	}
	return NewRouter(nil), nil
}
