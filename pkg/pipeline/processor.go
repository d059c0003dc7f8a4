package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kobweb-dev/kobgen/pkg/artifact"
	"github.com/kobweb-dev/kobgen/pkg/codegen"
	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/registry"
	"github.com/kobweb-dev/kobgen/pkg/routes"
	"github.com/kobweb-dev/kobgen/pkg/scan"
	"github.com/kobweb-dev/kobgen/pkg/syntax"
	"github.com/kobweb-dev/kobgen/pkg/syntax/kotlin"
)

// Parser turns a source file into a syntax tree.
type Parser interface {
	ParseFile(path string) (*syntax.File, error)
}

// Config describes one module's processing run.
type Config struct {
	// Module names the module in its registry blob.
	Module string

	// Sources are the source roots to scan.
	Sources []string

	Roots       routes.Roots
	Annotations scan.Annotations
	Target      scan.Target

	// Artifacts are the dependency artifacts whose registries are merged.
	Artifacts []artifact.Source

	// GeneratedPackage is the package of the generated source.
	GeneratedPackage string

	// OutputDir receives GeneratedFile and the module's registry blob.
	OutputDir     string
	GeneratedFile string

	// Concurrency bounds parallel scanning; 0 means GOMAXPROCS.
	Concurrency int

	// DryRun computes everything but writes nothing.
	DryRun bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithParser replaces the Kotlin parser.
func WithParser(parser Parser) Option {
	return func(p *Processor) { p.parser = parser }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(p *Processor) { p.metrics = m }
}

// WithTracer sets the tracer. The default comes from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Processor) { p.tracer = tracer }
}

// Processor runs scan, resolve, validate, merge and generate for one module.
type Processor struct {
	cfg     Config
	parser  Parser
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New returns a Processor for cfg.
func New(cfg Config, opts ...Option) *Processor {
	if cfg.GeneratedFile == "" {
		cfg.GeneratedFile = "KobwebRegistrations.kt"
	}
	p := &Processor{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.parser == nil {
		p.parser = kotlin.NewParser()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = defaultTracer()
	}
	return p
}

// Result is the outcome of a run. Fields are filled as far as the run got.
type Result struct {
	// Files are the scanned source files.
	Files []string

	// Candidates are sorted by file and line.
	Candidates []scan.Candidate

	// Own is this module's registry; Merged adds every dependency registry.
	Own    *registry.Registry
	Merged *registry.Registry

	// Sources maps this module's qualified names to their declarations.
	Sources map[string]diag.Location

	// Dependencies counts the dependency registries merged.
	Dependencies int

	// Source is the generated Kotlin source.
	Source []byte

	Diagnostics diag.List

	// Written lists output files that changed; Unchanged those left as they
	// were.
	Written   []string
	Unchanged []string

	// Fingerprints maps every output path, written or not, to the
	// Fingerprint of its content.
	Fingerprints map[string]string
}

// RegistryPath returns where the module's registry blob is written.
func (p *Processor) RegistryPath() string {
	return filepath.Join(p.cfg.OutputDir, filepath.FromSlash(registry.BlobPath))
}

// GeneratedPath returns where the generated source is written.
func (p *Processor) GeneratedPath() string {
	return filepath.Join(p.cfg.OutputDir, p.cfg.GeneratedFile)
}

// StageError reports the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Stages, in run order.
const (
	StageList          = "list"
	StageScan          = "scan"
	StageResolve       = "resolve"
	StageWriteRegistry = "write_registry"
	StageMerge         = "merge"
	StageGenerate      = "generate"
	StageWriteSource   = "write_source"
)

// Run processes the module. Any error diagnostic stops the run before the
// generated source is written. Failures are returned as a *StageError
// wrapping a *diag.ListError (scan and resolve) or a
// *routes.MultiValidationError (duplicate routes). The Result is returned
// even on failure and carries every diagnostic found so far.
func (p *Processor) Run(ctx context.Context) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "kobgen.process",
		trace.WithAttributes(attribute.String("kobgen.module", p.cfg.Module)))
	defer span.End()

	res := &Result{}
	defer func() { p.metrics.recordDiagnostics(res.Diagnostics) }()

	steps := []struct {
		name string
		fn   func(context.Context, *Result) error
	}{
		{StageList, p.list},
		{StageScan, p.scan},
		{StageResolve, p.resolve},
		{StageWriteRegistry, p.writeRegistry},
		{StageMerge, p.merge},
		{StageGenerate, p.generate},
		{StageWriteSource, p.writeSource},
	}
	for _, step := range steps {
		err := p.stage(ctx, step.name, func(ctx context.Context) error {
			return step.fn(ctx, res)
		})
		if err != nil {
			res.Diagnostics.Sort()
			return res, &StageError{Stage: step.name, Err: err}
		}
	}
	res.Diagnostics.Sort()

	p.logger.Info("processed module",
		"module", p.cfg.Module,
		"files", len(res.Files),
		"entries", res.Merged.Len(),
		"dependencies", res.Dependencies,
		"written", len(res.Written),
	)
	return res, nil
}

func (p *Processor) list(ctx context.Context, res *Result) error {
	files, err := ListSources(ctx, p.cfg.Sources)
	if err != nil {
		return err
	}
	res.Files = files
	p.logger.Debug("listed sources", "files", len(files))
	return nil
}

// collector gathers per-file scan results from concurrent workers.
type collector struct {
	mu         sync.Mutex
	candidates []scan.Candidate
	diags      diag.List
}

func (c *collector) add(r scan.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candidates = append(c.candidates, r.Candidates...)
	c.diags = append(c.diags, r.Diagnostics...)
}

func (p *Processor) scan(ctx context.Context, res *Result) error {
	scanner := scan.New(scan.Config{
		PagesPackage: p.cfg.Roots.Pages,
		APIPackage:   p.cfg.Roots.API,
		Annotations:  p.cfg.Annotations,
		Target:       p.cfg.Target,
	})

	limit := p.cfg.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var col collector
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, path := range res.Files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file, err := p.parser.ParseFile(path)
			if err != nil {
				col.add(scan.Result{Diagnostics: diag.List{
					diag.Errorf(diag.Location{File: path}, "cannot parse source file: %v", err),
				}})
				return nil
			}
			r := scanner.ScanFile(file)
			p.metrics.recordScan(r)
			col.add(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.SliceStable(col.candidates, func(i, j int) bool {
		a, b := col.candidates[i].Source(), col.candidates[j].Source()
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	res.Candidates = col.candidates
	res.Diagnostics = append(res.Diagnostics, col.diags...)
	res.Diagnostics.Sort()

	p.logger.Debug("scanned sources", "files", len(res.Files), "candidates", len(res.Candidates))
	return res.Diagnostics.Err()
}

func (p *Processor) resolve(_ context.Context, res *Result) error {
	resolved, diags := routes.Resolve(p.cfg.Module, p.cfg.Roots, res.Candidates)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err := diags.Err(); err != nil {
		return err
	}
	res.Own = resolved.Registry
	res.Sources = resolved.Sources
	p.metrics.recordRegistry("own", res.Own)

	v := routes.NewValidator(res.Own, resolved.Sources)
	err := v.Validate()
	res.Diagnostics = appendUnique(res.Diagnostics, v.Warnings()...)
	if err != nil {
		res.Diagnostics = appendUnique(res.Diagnostics, v.Errors()...)
		return err
	}
	return nil
}

func (p *Processor) writeRegistry(_ context.Context, res *Result) error {
	blob, err := registry.Encode(res.Own)
	if err != nil {
		return err
	}
	return p.write(res, p.RegistryPath(), blob)
}

func (p *Processor) merge(ctx context.Context, res *Result) error {
	loader := &artifact.Loader{Concurrency: p.cfg.Concurrency, Logger: p.logger}
	loaded, err := loader.Load(ctx, p.cfg.Artifacts)
	if err != nil {
		return err
	}
	res.Diagnostics = append(res.Diagnostics, loaded.Warnings...)
	res.Dependencies = len(loaded.Registries)
	p.metrics.recordDependencies(res.Dependencies)

	res.Merged = registry.Merge(res.Own, loaded.Registries...)
	p.metrics.recordRegistry("merged", res.Merged)

	// Dependency entries have no source locations.
	v := routes.NewValidator(res.Merged, res.Sources)
	err = v.Validate()
	res.Diagnostics = appendUnique(res.Diagnostics, v.Warnings()...)
	if err != nil {
		res.Diagnostics = appendUnique(res.Diagnostics, v.Errors()...)
		return fmt.Errorf("merged with dependencies: %w", err)
	}
	return nil
}

func (p *Processor) generate(_ context.Context, res *Result) error {
	src, err := codegen.Render(res.Merged, codegen.Options{Package: p.cfg.GeneratedPackage})
	if err != nil {
		return err
	}
	res.Source = src
	return nil
}

func (p *Processor) writeSource(_ context.Context, res *Result) error {
	return p.write(res, p.GeneratedPath(), res.Source)
}

func (p *Processor) write(res *Result, path string, data []byte) error {
	if p.cfg.DryRun || p.cfg.OutputDir == "" {
		return nil
	}
	written, err := writeIfChanged(path, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if res.Fingerprints == nil {
		res.Fingerprints = make(map[string]string)
	}
	res.Fingerprints[path] = Fingerprint(data)
	if written {
		p.metrics.recordWrite()
		res.Written = append(res.Written, path)
		p.logger.Debug("wrote output", "path", path, "fingerprint", res.Fingerprints[path])
	} else {
		res.Unchanged = append(res.Unchanged, path)
	}
	return nil
}

func appendUnique(list diag.List, more ...diag.Diagnostic) diag.List {
	seen := make(map[diag.Diagnostic]bool, len(list))
	for _, d := range list {
		seen[d] = true
	}
	for _, d := range more {
		if !seen[d] {
			seen[d] = true
			list = append(list, d)
		}
	}
	return list
}
