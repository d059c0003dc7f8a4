package artifact

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
)

// Loaded is the outcome of reading dependency registries.
type Loaded struct {
	// Registries holds one registry per source that embeds a valid blob, in
	// source order.
	Registries []*registry.Registry

	// Warnings lists sources whose blob could not be read or decoded.
	Warnings diag.List
}

// Loader reads registries from sources.
type Loader struct {
	// Concurrency bounds parallel reads; 0 means 8.
	Concurrency int

	Logger *slog.Logger
}

// Load reads and decodes every source's blob. A source without a blob, or
// with a broken one, contributes nothing; only context cancellation fails the
// load.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Loaded, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := l.Concurrency
	if limit <= 0 {
		limit = 8
	}

	regs := make([]*registry.Registry, len(sources))
	warns := make([]*diag.Diagnostic, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, src := range sources {
		g.Go(func() error {
			data, err := src.ReadRegistry(gctx)
			switch {
			case errors.Is(err, ErrNoRegistry):
				logger.Debug("artifact has no registry", "artifact", src.Name())
				return nil
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				d := diag.Warnf(diag.Location{File: src.Name()}, "skipping dependency registry: %v", err)
				warns[i] = &d
				return nil
			}
			reg, err := registry.Decode(data)
			if err != nil {
				d := diag.Warnf(diag.Location{File: src.Name()}, "skipping malformed dependency registry: %v", err)
				warns[i] = &d
				return nil
			}
			if reg.Module == "" {
				reg.Module = src.Name()
			}
			logger.Debug("loaded dependency registry", "artifact", src.Name(), "entries", reg.Len())
			regs[i] = reg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Loaded{}
	for i := range sources {
		if regs[i] != nil {
			out.Registries = append(out.Registries, regs[i])
		}
		if warns[i] != nil {
			out.Warnings = append(out.Warnings, *warns[i])
		}
	}
	return out, nil
}
