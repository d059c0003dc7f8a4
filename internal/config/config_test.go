package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/kobweb-dev/kobgen/internal/errors"
	"github.com/kobweb-dev/kobgen/pkg/scan"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Target != "all" {
		t.Errorf("Target = %q, want all", cfg.Target)
	}
	if cfg.Packages.Pages != DefaultPagesPackage {
		t.Errorf("Packages.Pages = %q, want %q", cfg.Packages.Pages, DefaultPagesPackage)
	}
	if cfg.Output.Dir != DefaultOutput {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, DefaultOutput)
	}
	if cfg.Output.File != DefaultGeneratedFile {
		t.Errorf("Output.File = %q, want %q", cfg.Output.File, DefaultGeneratedFile)
	}
	if !reflect.DeepEqual(cfg.Sources, DefaultSources) {
		t.Errorf("Sources = %v, want %v", cfg.Sources, DefaultSources)
	}
	if cfg.Annotations != scan.DefaultAnnotations() {
		t.Errorf("Annotations = %+v, want defaults", cfg.Annotations)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	var ke *errors.KobgenError
	if !stderrors.As(err, &ke) || ke.Code != "K101" {
		t.Fatalf("Load(empty dir) = %v, want K101", err)
	}

	writeFile(t, filepath.Join(tmpDir, JSONFileName), `{
  "group": "com.example.site",
  "target": "frontend",
  "sources": ["src/jsMain/kotlin"],
  "packages": {"pages": ".pages", "generated": ".gen"},
  "annotations": {"page": "org.acme.Route"},
  "artifacts": {"locations": ["libs/widgets.jar", "s3://bucket/libs/a"]},
  "concurrency": 4
}
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PagesPackage() != "com.example.site.pages" {
		t.Errorf("PagesPackage() = %q", cfg.PagesPackage())
	}
	if cfg.APIPackage() != "com.example.site.api" {
		t.Errorf("APIPackage() = %q", cfg.APIPackage())
	}
	if cfg.GeneratedPackage() != "com.example.site.gen" {
		t.Errorf("GeneratedPackage() = %q", cfg.GeneratedPackage())
	}
	if cfg.Annotations.Page != "org.acme.Route" {
		t.Errorf("Annotations.Page = %q", cfg.Annotations.Page)
	}
	if cfg.Annotations.API != scan.DefaultAnnotations().API {
		t.Errorf("unset annotations should keep defaults, got %q", cfg.Annotations.API)
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
	if cfg.ModuleName() != filepath.Base(tmpDir) {
		t.Errorf("ModuleName() = %q", cfg.ModuleName())
	}

	wantSources := []string{filepath.Join(tmpDir, "src/jsMain/kotlin")}
	if !reflect.DeepEqual(cfg.SourcePaths(), wantSources) {
		t.Errorf("SourcePaths() = %v", cfg.SourcePaths())
	}
	wantArtifacts := []string{filepath.Join(tmpDir, "libs/widgets.jar"), "s3://bucket/libs/a"}
	if !reflect.DeepEqual(cfg.ArtifactLocations(), wantArtifacts) {
		t.Errorf("ArtifactLocations() = %v", cfg.ArtifactLocations())
	}
	if cfg.GeneratedPath() != filepath.Join(tmpDir, DefaultOutput, DefaultGeneratedFile) {
		t.Errorf("GeneratedPath() = %q", cfg.GeneratedPath())
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, YAMLFileName), `
module: site
group: com.example
target: backend
packages:
  api: com.example.server.api
output:
  dir: /tmp/kobgen-out
artifacts:
  s3Prefixes: ["s3://kobweb/libs/"]
  s3:
    region: eu-west-1
    pathStyle: true
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModuleName() != "site" {
		t.Errorf("ModuleName() = %q", cfg.ModuleName())
	}
	if cfg.APIPackage() != "com.example.server.api" {
		t.Errorf("APIPackage() = %q", cfg.APIPackage())
	}
	if cfg.OutputPath() != "/tmp/kobgen-out" {
		t.Errorf("OutputPath() = %q", cfg.OutputPath())
	}
	if !cfg.Artifacts.S3.PathStyle || cfg.Artifacts.S3.Region != "eu-west-1" {
		t.Errorf("Artifacts.S3 = %+v", cfg.Artifacts.S3)
	}
	if len(cfg.Artifacts.S3Prefixes) != 1 {
		t.Errorf("Artifacts.S3Prefixes = %v", cfg.Artifacts.S3Prefixes)
	}
}

func TestLoadPrefersJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, JSONFileName), `{"module": "from-json"}`)
	writeFile(t, filepath.Join(tmpDir, YAMLFileName), "module: from-yaml\n")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Module != "from-json" {
		t.Errorf("Module = %q, want from-json", cfg.Module)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, YAMLFileName), "")
	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load(empty yaml): %v", err)
	}
	if cfg.Target != "all" {
		t.Errorf("Target = %q", cfg.Target)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, file, content string
	}{
		{name: "bad json", file: JSONFileName, content: "{not json"},
		{name: "unknown json field", file: JSONFileName, content: `{"pages": "x"}`},
		{name: "bad yaml", file: YAMLFileName, content: "sources: [unterminated"},
		{name: "unknown yaml field", file: YAMLFileName, content: "port: 3000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, tt.file), tt.content)
			_, err := Load(tmpDir)
			var ke *errors.KobgenError
			if !stderrors.As(err, &ke) || ke.Code != "K102" {
				t.Errorf("Load() = %v, want K102", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		substr string
	}{
		{name: "bad target", modify: func(c *Config) { c.Target = "wasm" }, substr: "unknown target"},
		{name: "no sources", modify: func(c *Config) { c.Sources = nil }, substr: "source root"},
		{name: "bad pages package", modify: func(c *Config) { c.Packages.Pages = "com..pages" }, substr: "packages.pages"},
		{name: "digit segment", modify: func(c *Config) { c.Packages.API = "com.example.1api" }, substr: "packages.api"},
		{name: "bad generated package", modify: func(c *Config) { c.Packages.Generated = "com.ex-ample" }, substr: "packages.generated"},
		{name: "negative concurrency", modify: func(c *Config) { c.Concurrency = -1 }, substr: "concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			var ke *errors.KobgenError
			if !stderrors.As(err, &ke) || ke.Code != "K103" {
				t.Errorf("Validate() = %v, want K103", err)
			}
			if !strings.Contains(ke.Detail, tt.substr) {
				t.Errorf("Detail = %q, want it to mention %q", ke.Detail, tt.substr)
			}
		})
	}
}

func TestPackagesWithoutGroup(t *testing.T) {
	cfg := New()
	if cfg.PagesPackage() != "pages" {
		t.Errorf("PagesPackage() = %q, want pages", cfg.PagesPackage())
	}
	if cfg.GeneratedPackage() != "" {
		t.Errorf("GeneratedPackage() = %q, want empty", cfg.GeneratedPackage())
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{JSONFileName, YAMLFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Group = "com.example"
			cfg.Artifacts.Locations = []string{"libs/a.jar"}

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo: %v", err)
			}
			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if loaded.Group != "com.example" || !reflect.DeepEqual(loaded.Artifacts.Locations, []string{"libs/a.jar"}) {
				t.Errorf("round trip lost fields: %+v", loaded)
			}
			if loaded.Path() != path {
				t.Errorf("Path() = %q", loaded.Path())
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, YAMLFileName), "group: com.example\n")

	nested := filepath.Join(tmpDir, "src", "jsMain", "kotlin")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	if root != tmpDir {
		t.Errorf("root = %q, want %q", root, tmpDir)
	}

	if _, err := FindProjectRoot(t.TempDir()); err == nil {
		t.Error("expected an error outside any project")
	}
}

func TestLoadFromWorkingDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, JSONFileName), `{"group": "com.example"}`)
	writeFile(t, filepath.Join(tmpDir, ".env"), "KOBGEN_MODULE=from-dotenv\nKOBGEN_TARGET=frontend\n")
	sub := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)
	t.Setenv("KOBGEN_TARGET", "backend")

	cfg, err := LoadFromWorkingDir()
	if err != nil {
		t.Fatalf("LoadFromWorkingDir: %v", err)
	}
	if cfg.Module != "from-dotenv" {
		t.Errorf("Module = %q, want from-dotenv", cfg.Module)
	}
	if cfg.Target != "backend" {
		t.Errorf("Target = %q, process environment should win over .env", cfg.Target)
	}
}
