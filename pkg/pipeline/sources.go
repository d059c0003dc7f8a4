package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skippedDirs are never descended into when listing sources.
var skippedDirs = map[string]bool{
	"build":        true,
	"out":          true,
	"node_modules": true,
}

// ListSources returns every .kt file under roots, sorted and without
// duplicates. Build output and hidden directories are skipped. A root that
// does not exist is an error.
func ListSources(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("source root: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source root %s: %w", root, fs.ErrInvalid)
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (skippedDirs[name] || strings.HasPrefix(name, ".")) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".kt" {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if !seen[abs] {
				seen[abs] = true
				files = append(files, abs)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
