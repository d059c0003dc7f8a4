// Package artifact reads the registry blobs embedded in dependency artifacts.
//
// The set of artifacts is always explicit: callers pass the Sources to read,
// typically built from the configured dependency locations with Open.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/kobweb-dev/kobgen/pkg/registry"
)

// ErrNoRegistry is returned by ReadRegistry when the artifact embeds no
// registry blob.
var ErrNoRegistry = errors.New("artifact has no registry")

// MaxBlobSize bounds the size of a registry blob.
const MaxBlobSize = 16 << 20

// Source is a dependency artifact that may embed a registry blob.
type Source interface {
	// Name identifies the artifact in diagnostics.
	Name() string

	// ReadRegistry returns the raw blob, or ErrNoRegistry.
	ReadRegistry(ctx context.Context) ([]byte, error)
}

// JarSource reads the blob from a jar, klib or zip archive.
type JarSource struct {
	Path string
}

func (s JarSource) Name() string { return s.Path }

func (s JarSource) ReadRegistry(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := zip.OpenReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != registry.BlobPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s!/%s: %w", s.Path, f.Name, err)
		}
		defer rc.Close()
		return readLimited(rc)
	}
	return nil, ErrNoRegistry
}

// DirSource reads the blob from an exploded artifact directory, such as a
// module's build output.
type DirSource struct {
	Dir string
}

func (s DirSource) Name() string { return s.Dir }

func (s DirSource) ReadRegistry(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.Dir, filepath.FromSlash(registry.BlobPath)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRegistry
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBlobSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxBlobSize {
		return nil, fmt.Errorf("registry blob exceeds %d bytes", MaxBlobSize)
	}
	return data, nil
}

// Open returns the Source for a dependency location: an "s3://bucket/path"
// URL, a directory, or an archive path. client is only used for S3 locations
// and may be nil otherwise.
func Open(location string, client S3GetObjectAPI) (Source, error) {
	if strings.HasPrefix(location, "s3://") {
		if client == nil {
			return nil, fmt.Errorf("%s: no S3 client configured", location)
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("%s: want s3://bucket/prefix/artifact", location)
		}
		return NewS3Source(client, bucket, key), nil
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return DirSource{Dir: location}, nil
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".jar", ".klib", ".zip", ".aar":
		return JarSource{Path: location}, nil
	}
	return nil, fmt.Errorf("%s: not a directory or archive", location)
}
