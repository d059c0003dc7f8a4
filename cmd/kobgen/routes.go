package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kobweb-dev/kobgen/internal/errors"
	"github.com/kobweb-dev/kobgen/pkg/artifact"
	"github.com/kobweb-dev/kobgen/pkg/pipeline"
	"github.com/kobweb-dev/kobgen/pkg/registry"
	"github.com/kobweb-dev/kobgen/pkg/routes"
)

func routesCmd() *cobra.Command {
	var (
		flags processFlags
		from  string
		match string
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the routes the project registers",
		Long: `List every page, API and API stream route, including those merged
from dependencies. Nothing is written.

With --from, the registry is read from an artifact (a build output
directory, a jar or an s3:// URL) instead of scanning the project.

With --match, only the entries serving the given request path are shown,
along with the values captured by dynamic segments.

Examples:
  kobgen routes
  kobgen routes --from build/libs/site.jar
  kobgen routes --match /users/42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var (
				reg *registry.Registry
				err error
			)
			if from != "" {
				reg, err = readArtifact(ctx, from)
			} else {
				reg, err = projectRegistry(ctx, &flags)
			}
			if err != nil {
				return err
			}

			if match != "" {
				return printMatches(reg, match)
			}
			printRoutes(reg)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "Read the registry from this artifact instead of the project")
	cmd.Flags().StringVarP(&match, "match", "m", "", "Show only the entries serving this request path")
	return cmd
}

// readArtifact decodes the registry stored in one artifact.
func readArtifact(ctx context.Context, location string) (*registry.Registry, error) {
	var client artifact.S3GetObjectAPI
	if strings.HasPrefix(location, "s3://") {
		client = artifact.NewS3Client(artifact.S3Options{})
	}
	src, err := artifact.Open(location, client)
	if err != nil {
		return nil, errors.New("K401").Wrap(err)
	}
	data, err := src.ReadRegistry(ctx)
	if err != nil {
		return nil, errors.New("K401").Wrap(err).WithSuggestion("Run kobgen process for the module that built " + location)
	}
	reg, err := registry.Decode(data)
	if err != nil {
		return nil, errors.New("K401").Wrap(err)
	}
	return reg, nil
}

// projectRegistry runs the pipeline without writing and returns the merged
// registry.
func projectRegistry(ctx context.Context, flags *processFlags) (*registry.Registry, error) {
	cfg, err := flags.loadConfig()
	if err != nil {
		return nil, err
	}
	pcfg, err := pipelineConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pcfg.DryRun = true

	res, err := pipeline.New(pcfg).Run(ctx)
	printDiagnostics(res.Diagnostics)
	if err != nil {
		return nil, liftError(err, res.Diagnostics)
	}
	return res.Merged, nil
}

type routeRow struct {
	kind  routes.EntryKind
	entry registry.RouteEntry
}

func routeRows(reg *registry.Registry) []routeRow {
	var rows []routeRow
	if reg == nil {
		return rows
	}
	add := func(kind routes.EntryKind, entries []registry.RouteEntry) {
		for _, e := range entries {
			rows = append(rows, routeRow{kind: kind, entry: e})
		}
	}
	add(routes.KindPage, reg.Pages)
	add(routes.KindAPI, reg.APIs)
	add(routes.KindAPIStream, reg.APIStreams)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].entry.Route < rows[j].entry.Route
	})
	return rows
}

func printRoutes(reg *registry.Registry) {
	rows := routeRows(reg)
	if len(rows) == 0 {
		info("No routes registered")
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tROUTE\tDECLARATION")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.kind, r.entry.Route, r.entry.QualifiedName)
	}
	w.Flush()
}

func printMatches(reg *registry.Registry, path string) error {
	m, err := routes.NewMatcher(reg)
	if err != nil {
		return errors.New("K203").Wrap(err)
	}
	matches, err := m.Match(path)
	if err != nil {
		return errors.New("K103").Wrap(err).WithDetail("--match takes a request path such as /users/42")
	}
	if len(matches) == 0 {
		warn("No route serves %s", path)
		return nil
	}
	for _, match := range matches {
		success("%s %s → %s", match.Kind, match.Entry.Route, match.Entry.QualifiedName)
		keys := make([]string, 0, len(match.Params))
		for k := range match.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			info("%s = %s", k, match.Params[k])
		}
	}
	return nil
}
