package main

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/kobweb-dev/kobgen/internal/config"
	"github.com/kobweb-dev/kobgen/internal/errors"
	"github.com/kobweb-dev/kobgen/internal/watch"
	"github.com/kobweb-dev/kobgen/pkg/artifact"
	"github.com/kobweb-dev/kobgen/pkg/diag"
	"github.com/kobweb-dev/kobgen/pkg/pipeline"
	"github.com/kobweb-dev/kobgen/pkg/routes"
	"github.com/kobweb-dev/kobgen/pkg/scan"
)

// processFlags are the flags shared by commands that run the pipeline.
type processFlags struct {
	configPath  string
	target      string
	output      string
	artifacts   []string
	concurrency int
}

func (f *processFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file (default: kobgen.json or kobgen.yaml in the project root)")
	cmd.Flags().StringVar(&f.target, "target", "", "Declarations to scan: frontend, backend or all")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory")
	cmd.Flags().StringSliceVarP(&f.artifacts, "artifact", "a", nil, "Dependency artifact (directory, jar, klib or s3:// URL); repeatable")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "j", 0, "Files scanned in parallel (default: one per CPU)")
}

// loadConfig loads the project config and applies flag overrides.
func (f *processFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
		if err == nil {
			var lookup config.LookupFunc
			if lookup, err = config.Env(cfg.Dir()); err == nil {
				err = cfg.ApplyEnv(lookup)
			}
		}
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}

	if f.target != "" {
		cfg.Target = f.target
	}
	if f.output != "" {
		cfg.Output.Dir = f.output
	}
	if len(f.artifacts) > 0 {
		cfg.Artifacts.Locations = append(cfg.Artifacts.Locations, f.artifacts...)
	}
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// pipelineConfig translates a project config into a pipeline run.
func pipelineConfig(ctx context.Context, cfg *config.Config) (pipeline.Config, error) {
	target, err := scan.ParseTarget(cfg.Target)
	if err != nil {
		return pipeline.Config{}, errors.New("K103").WithDetail(err.Error())
	}
	sources, err := artifactSources(ctx, cfg)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Module:           cfg.ModuleName(),
		Sources:          cfg.SourcePaths(),
		Roots:            routes.Roots{Pages: cfg.PagesPackage(), API: cfg.APIPackage()},
		Annotations:      cfg.Annotations,
		Target:           target,
		Artifacts:        sources,
		GeneratedPackage: cfg.GeneratedPackage(),
		OutputDir:        cfg.OutputPath(),
		GeneratedFile:    cfg.Output.File,
		Concurrency:      cfg.Concurrency,
	}, nil
}

// artifactSources opens every configured artifact. The S3 client is created
// only when some location needs it.
func artifactSources(ctx context.Context, cfg *config.Config) ([]artifact.Source, error) {
	locations := cfg.ArtifactLocations()
	needS3 := len(cfg.Artifacts.S3Prefixes) > 0
	for _, loc := range locations {
		needS3 = needS3 || strings.HasPrefix(loc, "s3://")
	}
	var client interface {
		artifact.S3GetObjectAPI
		s3.ListObjectsV2APIClient
	}
	if needS3 {
		client = artifact.NewS3Client(artifact.S3Options{
			Region:    cfg.Artifacts.S3.Region,
			Endpoint:  cfg.Artifacts.S3.Endpoint,
			PathStyle: cfg.Artifacts.S3.PathStyle,
		})
	}

	var sources []artifact.Source
	for _, loc := range locations {
		src, err := artifact.Open(loc, client)
		if err != nil {
			return nil, errors.New("K401").Wrap(err).WithSuggestion("Check the artifact location " + loc)
		}
		sources = append(sources, src)
	}
	for _, prefix := range cfg.Artifacts.S3Prefixes {
		bucket, key, _ := strings.Cut(strings.TrimPrefix(prefix, "s3://"), "/")
		if !strings.HasPrefix(prefix, "s3://") || bucket == "" {
			return nil, errors.New("K401").WithDetail("S3 prefixes look like s3://bucket/prefix, got " + prefix)
		}
		listed, err := artifact.ListS3(ctx, client, bucket, key)
		if err != nil {
			return nil, errors.New("K402").Wrap(err)
		}
		slog.Debug("listed dependency registries", "prefix", prefix, "count", len(listed))
		sources = append(sources, listed...)
	}
	return sources, nil
}

func processCmd() *cobra.Command {
	var (
		flags       processFlags
		dryRun      bool
		watchMode   bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Scan sources and generate the registrations source",
		Long: `Scan the project's Kotlin sources, resolve routes and registrations,
merge dependency registries, and write:

  <output>/META-INF/kobweb/registry.json   this module's registry
  <output>/KobwebRegistrations.kt          the generated registrations

Files are rewritten only when their content changes. Any error stops the
run before the generated source is written.

Examples:
  kobgen process
  kobgen process --target frontend -a build/libs/widgets.jar
  kobgen process --watch
  kobgen process --dry-run --metrics-file /var/lib/node_exporter/kobgen.prom`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if watchMode {
				return watchProcess(cmd.Context(), cfg, dryRun, metricsFile)
			}
			return runProcess(cmd.Context(), cfg, dryRun, metricsFile)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Run every check but write nothing")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Process again whenever a source file changes")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	return cmd
}

func runProcess(ctx context.Context, cfg *config.Config, dryRun bool, metricsFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pcfg, err := pipelineConfig(ctx, cfg)
	if err != nil {
		return err
	}
	pcfg.DryRun = dryRun

	reg := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(pipeline.WithRegistry(reg),
		pipeline.WithConstLabels(prometheus.Labels{"module": pcfg.Module}))
	p := pipeline.New(pcfg, pipeline.WithMetrics(metrics), pipeline.WithLogger(slog.Default()))

	info("Scanning %s...", strings.Join(cfg.Sources, ", "))
	res, runErr := p.Run(ctx)

	if metricsFile != "" {
		if err := pipeline.WriteTextfile(metricsFile, reg); err != nil {
			warn("%v", errors.New("K503").Wrap(err))
		}
	}

	printDiagnostics(res.Diagnostics)
	if runErr != nil {
		return liftError(runErr, res.Diagnostics)
	}

	info("Found %d files, %d declarations", len(res.Files), len(res.Candidates))
	if res.Dependencies > 0 {
		info("Merged %d dependency registries", res.Dependencies)
	}
	counts := res.Merged.Counts()
	info("%d pages, %d APIs, %d API streams, %d styles, %d variants, %d keyframes",
		counts["pages"], counts["apis"], counts["apiStreams"], counts["styles"], counts["variants"], counts["keyframes"])

	switch {
	case dryRun:
		success("Checked %s (dry run, nothing written)", pcfg.Module)
	case len(res.Written) == 0:
		success("Up to date: %s", p.GeneratedPath())
	default:
		for _, path := range res.Written {
			success("Generated %s", path)
		}
	}
	return nil
}

func printDiagnostics(list diag.List) {
	for _, d := range list {
		if d.Severity == diag.Error {
			errorMsg("%s", d)
		} else {
			warn("%s", d)
		}
	}
}

// liftError gives a failed run its error code.
func liftError(err error, diags diag.List) error {
	var ke *errors.KobgenError
	if stderrors.As(err, &ke) {
		return err
	}

	var (
		stage    string
		stageErr *pipeline.StageError
		multi    *routes.MultiValidationError
	)
	if stderrors.As(err, &stageErr) {
		stage = stageErr.Stage
	}

	var out *errors.KobgenError
	switch {
	case stderrors.As(err, &multi):
		code := "K301"
		if len(multi.Errors) > 0 && multi.Errors[0].Type == routes.ErrorDuplicateAPIRoute {
			code = "K302"
		}
		details := make([]string, 0, len(multi.Errors))
		for _, e := range multi.Errors {
			details = append(details, routes.FormatValidationError(e))
		}
		out = errors.New(code).WithDetail(strings.Join(details, "\n")).
			WithSuggestion("Rename or move one of the declarations, or give it a routeOverride")
	case stage == pipeline.StageList && stderrors.Is(err, fs.ErrNotExist):
		out = errors.New("K201").Wrap(err).
			WithSuggestion(`Check "sources" in the project config`)
	case stage == pipeline.StageList:
		out = errors.New("K201").Wrap(err)
	case stage == pipeline.StageScan || stage == pipeline.StageResolve:
		out = errors.New("K203").Wrap(err)
	case stage == pipeline.StageWriteRegistry || stage == pipeline.StageWriteSource:
		out = errors.New("K501").Wrap(err)
	case stage == pipeline.StageGenerate:
		out = errors.New("K502").Wrap(err)
	default:
		return err
	}

	if errs := diags.Errors(); len(errs) > 0 && errs[0].File != "" {
		out = out.WithLocation(errs[0].File, errs[0].Line, 0)
	}
	return out
}

// watchProcess runs once, then again after every batch of source changes.
// Failed runs are reported and the watch goes on.
func watchProcess(ctx context.Context, cfg *config.Config, dryRun bool, metricsFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() {
		if err := runProcess(ctx, cfg, dryRun, metricsFile); err != nil {
			errors.Fprint(os.Stderr, err)
		}
	}
	runOnce()

	paths := cfg.SourcePaths()
	if cfg.Path() != "" {
		paths = append(paths, cfg.Path())
	}
	w := watch.New(watch.Config{Paths: paths})
	w.OnChange(func(changes []watch.Change) {
		for _, c := range changes {
			slog.Debug("source changed", "path", c.Path, "op", c.Op)
		}
		info("%d file(s) changed, processing again", len(changes))
		runOnce()
	})

	info("Watching %s (Ctrl+C to stop)", strings.Join(cfg.Sources, ", "))
	if err := w.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
