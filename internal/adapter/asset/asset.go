// Package asset reads the seed catalog.
package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/niksmo/storefront/assets"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.SeedAsset = (*Seed)(nil)

// Seed is a catalog file in a file system.
type Seed struct {
	fsys fs.FS
	name string
}

func New(fsys fs.FS, name string) *Seed {
	return &Seed{fsys: fsys, name: name}
}

// Bundled returns the catalog compiled into the binary.
func Bundled() *Seed {
	return New(assets.FS, assets.Products)
}

// File returns the catalog at path on the local disk.
func File(path string) *Seed {
	return New(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Load reads the whole catalog. A missing file is [domain.ErrAssetNotFound],
// any other failure is [domain.ErrAssetLoad].
func (s *Seed) Load(ctx context.Context) ([]byte, error) {
	const op = "Seed.Load"
	log := slog.With("op", op, "name", s.name)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrAssetNotFound, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", op, domain.ErrAssetLoad, err)
	}

	log.Debug("seed asset loaded", "bytes", len(data))
	return data, nil
}
