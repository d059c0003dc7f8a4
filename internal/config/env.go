package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/kobweb-dev/kobgen/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "KOBGEN_"

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// Env returns a lookup over the process environment, falling back to the
// .env file in dir when it exists. Variables already set in the process win.
func Env(dir string) (LookupFunc, error) {
	path := filepath.Join(dir, ".env")
	file := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		file, err = godotenv.Read(path)
		if err != nil {
			return nil, errors.New("K104").
				WithDetail("Failed to read " + path + ": " + err.Error())
		}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

// ApplyEnv overrides fields from KOBGEN_* variables:
//
//	KOBGEN_MODULE, KOBGEN_GROUP, KOBGEN_TARGET
//	KOBGEN_SOURCES, KOBGEN_ARTIFACTS, KOBGEN_S3_PREFIXES   comma-separated lists
//	KOBGEN_PAGES_PACKAGE, KOBGEN_API_PACKAGE, KOBGEN_GENERATED_PACKAGE
//	KOBGEN_OUTPUT_DIR, KOBGEN_OUTPUT_FILE
//	KOBGEN_CONCURRENCY
//	KOBGEN_S3_REGION, KOBGEN_S3_ENDPOINT, KOBGEN_S3_PATH_STYLE
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		return nil
	}
	str := func(name string, field *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
	list := func(name string, field *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*field = splitList(v)
		}
	}

	str("MODULE", &c.Module)
	str("GROUP", &c.Group)
	str("TARGET", &c.Target)
	list("SOURCES", &c.Sources)
	str("PAGES_PACKAGE", &c.Packages.Pages)
	str("API_PACKAGE", &c.Packages.API)
	str("GENERATED_PACKAGE", &c.Packages.Generated)
	str("OUTPUT_DIR", &c.Output.Dir)
	str("OUTPUT_FILE", &c.Output.File)
	list("ARTIFACTS", &c.Artifacts.Locations)
	list("S3_PREFIXES", &c.Artifacts.S3Prefixes)
	str("S3_REGION", &c.Artifacts.S3.Region)
	str("S3_ENDPOINT", &c.Artifacts.S3.Endpoint)

	if v, ok := lookup(EnvPrefix + "CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.New("K104").
				WithDetail(EnvPrefix + "CONCURRENCY must be an integer, got " + strconv.Quote(v))
		}
		c.Concurrency = n
	}
	if v, ok := lookup(EnvPrefix + "S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.New("K104").
				WithDetail(EnvPrefix + "S3_PATH_STYLE must be a boolean, got " + strconv.Quote(v))
		}
		c.Artifacts.S3.PathStyle = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
