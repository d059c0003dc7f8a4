package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// BlobPath is where an artifact embeds its registry.
const BlobPath = "META-INF/kobweb/registry.json"

// FormatVersion is the blob format written by this package.
const FormatVersion = 1

// ErrUnsupportedVersion is returned by Decode for blobs newer than
// FormatVersion.
var ErrUnsupportedVersion = errors.New("unsupported registry format version")

// RouteEntry registers a page, API endpoint or API stream at a route.
type RouteEntry struct {
	QualifiedName string `json:"fqn"`
	Route         string `json:"route"`
}

// InitEntry registers an init hook.
type InitEntry struct {
	QualifiedName  string `json:"fqn"`
	AcceptsContext bool   `json:"acceptsContext,omitempty"`
}

// StyleEntry registers a style, variant or keyframes declaration.
type StyleEntry struct {
	QualifiedName string `json:"fqn"`
	CSSName       string `json:"cssName,omitempty"`
}

// Registry is the full registration set of one module, or of an application
// after merging. It is not modified once produced.
type Registry struct {
	// Version is the blob format version.
	Version int `json:"version"`

	// Module names the module that produced the registry.
	Module string `json:"module,omitempty"`

	Pages       []RouteEntry `json:"pages,omitempty"`
	APIs        []RouteEntry `json:"apis,omitempty"`
	APIStreams  []RouteEntry `json:"apiStreams,omitempty"`
	KobwebInits []InitEntry  `json:"kobwebInits,omitempty"`
	SilkInits   []InitEntry  `json:"silkInits,omitempty"`
	APIInits    []InitEntry  `json:"apiInits,omitempty"`
	Styles      []StyleEntry `json:"styles,omitempty"`
	Variants    []StyleEntry `json:"variants,omitempty"`
	Keyframes   []StyleEntry `json:"keyframes,omitempty"`
}

// New returns an empty registry for module.
func New(module string) *Registry {
	return &Registry{Version: FormatVersion, Module: module}
}

// Len returns the total number of entries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Pages) + len(r.APIs) + len(r.APIStreams) +
		len(r.KobwebInits) + len(r.SilkInits) + len(r.APIInits) +
		len(r.Styles) + len(r.Variants) + len(r.Keyframes)
}

// Counts returns the number of entries per section, keyed by the section's
// JSON name.
func (r *Registry) Counts() map[string]int {
	if r == nil {
		r = &Registry{}
	}
	return map[string]int{
		"pages":       len(r.Pages),
		"apis":        len(r.APIs),
		"apiStreams":  len(r.APIStreams),
		"kobwebInits": len(r.KobwebInits),
		"silkInits":   len(r.SilkInits),
		"apiInits":    len(r.APIInits),
		"styles":      len(r.Styles),
		"variants":    len(r.Variants),
		"keyframes":   len(r.Keyframes),
	}
}

// Encode serializes r as an indented JSON blob with a trailing newline. The
// caller is expected to have sorted r (see Merge) for reproducible output.
func Encode(r *Registry) ([]byte, error) {
	out := *r
	if out.Version == 0 {
		out.Version = FormatVersion
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a registry blob. A missing version is read as version 1.
func Decode(data []byte) (*Registry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode registry: empty blob")
	}
	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if r.Version == 0 {
		r.Version = FormatVersion
	}
	if r.Version > FormatVersion {
		return nil, fmt.Errorf("decode registry: %w: %d (newest supported is %d)", ErrUnsupportedVersion, r.Version, FormatVersion)
	}
	if err := r.check(); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return &r, nil
}

// check rejects entries that could not have been produced by a scan.
func (r *Registry) check() error {
	for _, list := range [][]RouteEntry{r.Pages, r.APIs, r.APIStreams} {
		for _, e := range list {
			if e.QualifiedName == "" {
				return fmt.Errorf("route entry %q has no qualified name", e.Route)
			}
			if len(e.Route) == 0 || e.Route[0] != '/' {
				return fmt.Errorf("entry %s has invalid route %q", e.QualifiedName, e.Route)
			}
		}
	}
	for _, list := range [][]InitEntry{r.KobwebInits, r.SilkInits, r.APIInits} {
		for _, e := range list {
			if e.QualifiedName == "" {
				return fmt.Errorf("init entry has no qualified name")
			}
		}
	}
	for _, list := range [][]StyleEntry{r.Styles, r.Variants, r.Keyframes} {
		for _, e := range list {
			if e.QualifiedName == "" {
				return fmt.Errorf("style entry %q has no qualified name", e.CSSName)
			}
		}
	}
	return nil
}
