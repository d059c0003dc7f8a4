package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kobweb-dev/kobgen/internal/errors"
	"github.com/kobweb-dev/kobgen/pkg/scan"
)

const (
	// JSONFileName and YAMLFileName are the configuration file names, looked
	// up in that order.
	JSONFileName = "kobgen.json"
	YAMLFileName = "kobgen.yaml"

	// DefaultPagesPackage and DefaultAPIPackage are relative to Group.
	DefaultPagesPackage = ".pages"
	DefaultAPIPackage   = ".api"

	// DefaultOutput is the default output directory.
	DefaultOutput = "build/generated/kobweb"

	// DefaultGeneratedFile is the default name of the generated source file.
	DefaultGeneratedFile = "KobwebRegistrations.kt"
)

// DefaultSources are the source roots scanned when none are configured.
var DefaultSources = []string{"src/jsMain/kotlin", "src/jvmMain/kotlin", "src/commonMain/kotlin"}

// Config represents a kobgen.json or kobgen.yaml file.
type Config struct {
	// Module names the module in its registry blob. Defaults to the name of
	// the project directory.
	Module string `json:"module,omitempty" yaml:"module,omitempty"`

	// Group is the base package that relative package names start from.
	Group string `json:"group,omitempty" yaml:"group,omitempty"`

	// Target is "frontend", "backend" or "all".
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// Sources are the source roots to scan.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	Packages PackagesConfig `json:"packages,omitempty" yaml:"packages,omitempty"`

	// Annotations overrides annotation qualified names; empty fields keep the
	// Kobweb defaults.
	Annotations scan.Annotations `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`

	Artifacts ArtifactsConfig `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`

	// Concurrency bounds parallel file scanning; 0 means one per CPU.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PackagesConfig holds root packages. A name starting with "." is relative to
// Config.Group.
type PackagesConfig struct {
	Pages string `json:"pages,omitempty" yaml:"pages,omitempty"`
	API   string `json:"api,omitempty" yaml:"api,omitempty"`

	// Generated is the package of the generated source.
	Generated string `json:"generated,omitempty" yaml:"generated,omitempty"`
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	// Dir receives the generated source and META-INF/kobweb/registry.json.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// File is the generated source file name inside Dir.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// ArtifactsConfig lists dependency artifacts whose registries are merged.
type ArtifactsConfig struct {
	// Locations are directories, jar/klib/zip files or s3:// URLs.
	Locations []string `json:"locations,omitempty" yaml:"locations,omitempty"`

	// S3Prefixes are s3://bucket/prefix URLs under which every registry blob
	// is merged.
	S3Prefixes []string `json:"s3Prefixes,omitempty" yaml:"s3Prefixes,omitempty"`

	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config configures the object store client.
type S3Config struct {
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	PathStyle bool   `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from dir, trying kobgen.json then kobgen.yaml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("K101").
		WithDetail("No " + JSONFileName + " or " + YAMLFileName + " found in " + dir).
		WithSuggestion("Run 'kobgen init' to create one")
}

// LoadFile reads configuration from path. Files ending in .yaml or .yml are
// read as YAML, anything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("K101").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("K102").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, errors.New("K102").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid YAML")
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, errors.New("K102").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid JSON")
		}
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// SaveTo writes the configuration to path, as YAML or JSON by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("K501").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("K501").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Target == "" {
		c.Target = "all"
	}
	if len(c.Sources) == 0 {
		c.Sources = append([]string(nil), DefaultSources...)
	}
	if c.Packages.Pages == "" {
		c.Packages.Pages = DefaultPagesPackage
	}
	if c.Packages.API == "" {
		c.Packages.API = DefaultAPIPackage
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutput
	}
	if c.Output.File == "" {
		c.Output.File = DefaultGeneratedFile
	}

	defaults := scan.DefaultAnnotations()
	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fill(&c.Annotations.Page, defaults.Page)
	fill(&c.Annotations.API, defaults.API)
	fill(&c.Annotations.InitKobweb, defaults.InitKobweb)
	fill(&c.Annotations.InitSilk, defaults.InitSilk)
	fill(&c.Annotations.InitAPI, defaults.InitAPI)
	fill(&c.Annotations.PackageMapping, defaults.PackageMapping)
	fill(&c.Annotations.Composable, defaults.Composable)
	fill(&c.Annotations.CSSName, defaults.CSSName)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := scan.ParseTarget(c.Target); err != nil {
		return errors.New("K103").WithDetail(err.Error())
	}
	if len(c.Sources) == 0 {
		return errors.New("K103").
			WithDetail("At least one source root is required").
			WithSuggestion(`Add "sources": ["src/jsMain/kotlin"]`)
	}
	for label, pkg := range map[string]string{
		"packages.pages":     c.PagesPackage(),
		"packages.api":       c.APIPackage(),
		"packages.generated": c.GeneratedPackage(),
	} {
		if !validPackage(pkg) {
			return errors.New("K103").
				WithDetail(label + " is not a valid package name: " + pkg)
		}
	}
	if c.Concurrency < 0 {
		return errors.New("K103").WithDetail("concurrency must not be negative")
	}
	return nil
}

// validPackage reports whether pkg is empty or a dotted list of identifiers.
func validPackage(pkg string) bool {
	if pkg == "" {
		return true
	}
	for _, seg := range strings.Split(pkg, ".") {
		if seg == "" {
			return false
		}
		for i, r := range seg {
			letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !letter && (i == 0 || r < '0' || r > '9') {
				return false
			}
		}
	}
	return true
}

// qualify resolves a package name relative to Group.
func (c *Config) qualify(pkg string) string {
	if !strings.HasPrefix(pkg, ".") {
		return pkg
	}
	if c.Group == "" {
		return strings.TrimPrefix(pkg, ".")
	}
	return c.Group + pkg
}

// PagesPackage returns the qualified pages root package.
func (c *Config) PagesPackage() string { return c.qualify(c.Packages.Pages) }

// APIPackage returns the qualified API root package.
func (c *Config) APIPackage() string { return c.qualify(c.Packages.API) }

// GeneratedPackage returns the qualified package of the generated source.
// It defaults to Group.
func (c *Config) GeneratedPackage() string {
	if c.Packages.Generated == "" {
		return c.Group
	}
	return c.qualify(c.Packages.Generated)
}

// ModuleName returns Module, or the project directory name when unset.
func (c *Config) ModuleName() string {
	if c.Module != "" {
		return c.Module
	}
	if dir := c.Dir(); dir != "" {
		return filepath.Base(dir)
	}
	return ""
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// SourcePaths returns the source roots as absolute paths.
func (c *Config) SourcePaths() []string {
	out := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		out[i] = c.resolve(s)
	}
	return out
}

// OutputPath returns the absolute path to the output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Output.Dir)
}

// GeneratedPath returns the absolute path to the generated source file.
func (c *Config) GeneratedPath() string {
	return filepath.Join(c.OutputPath(), c.Output.File)
}

// ArtifactLocations returns artifact locations with local paths made
// absolute.
func (c *Config) ArtifactLocations() []string {
	out := make([]string, len(c.Artifacts.Locations))
	for i, loc := range c.Artifacts.Locations {
		if strings.HasPrefix(loc, "s3://") {
			out[i] = loc
		} else {
			out[i] = c.resolve(loc)
		}
	}
	return out
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{JSONFileName, YAMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("K101").
				WithDetail("No " + JSONFileName + " or " + YAMLFileName + " found in " + startDir + " or any parent directory").
				WithSuggestion("Run 'kobgen init' in the project directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the project containing the
// current working directory, then applies KOBGEN_* overrides from the
// environment and the project's .env file.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(root)
	if err != nil {
		return nil, err
	}
	lookup, err := Env(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}
