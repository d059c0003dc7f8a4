// Package codegen renders a registry as the Kotlin source the runtime calls at
// startup.
//
// The output holds up to three entry functions, each present only when it has
// something to register:
//
//	fun initKobwebRoutes(ctx: InitKobwebContext)     // pages, @InitKobweb hooks
//	fun initSilkRegistrations(ctx: InitSilkContext)  // styles, variants, keyframes, @InitSilk hooks
//	fun initApiRegistrations(ctx: InitApiContext)    // APIs, API streams, @InitApi hooks
//
// Every registry entry becomes exactly one statement, in registry order.
// Rendering is a pure function of the registry and options.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/kobweb-dev/kobgen/pkg/registry"
)

//go:embed templates/*.tpl
var templates embed.FS

var tmpl = template.Must(template.New("codegen").Funcs(template.FuncMap{
	"kstr":  KotlinString,
	"kname": KotlinName,
}).ParseFS(templates, "templates/*.tpl"))

// Runtime context types imported by the entry functions.
const (
	kobwebContext = "com.varabyte.kobweb.core.init.InitKobwebContext"
	silkContext   = "com.varabyte.kobweb.silk.init.InitSilkContext"
	apiContext    = "com.varabyte.kobweb.api.init.InitApiContext"
)

// Options configures Render.
type Options struct {
	// Package is the Kotlin package of the generated file; empty for the
	// default package.
	Package string
}

type fileData struct {
	Package  string
	Module   string
	Imports  []string
	Kobweb   bool
	Silk     bool
	API      bool
	Registry *registry.Registry
}

// Render returns the generated source for reg. The registry is rendered in the
// order given; callers pass a merged (sorted) registry.
func Render(reg *registry.Registry, opts Options) ([]byte, error) {
	if reg == nil {
		reg = &registry.Registry{}
	}
	data := fileData{
		Package:  opts.Package,
		Module:   reg.Module,
		Registry: reg,
		Kobweb:   len(reg.Pages)+len(reg.KobwebInits) > 0,
		Silk:     len(reg.Styles)+len(reg.Variants)+len(reg.Keyframes)+len(reg.SilkInits) > 0,
		API:      len(reg.APIs)+len(reg.APIStreams)+len(reg.APIInits) > 0,
	}
	if data.API {
		data.Imports = append(data.Imports, apiContext)
	}
	if data.Kobweb {
		data.Imports = append(data.Imports, kobwebContext)
	}
	if data.Silk {
		data.Imports = append(data.Imports, silkContext)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "file", data); err != nil {
		return nil, fmt.Errorf("render registrations: %w", err)
	}
	return tidy(buf.Bytes()), nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// tidy collapses runs of blank lines left by template conditionals and ends
// the file with exactly one newline.
func tidy(src []byte) []byte {
	src = blankRuns.ReplaceAll(src, []byte("\n\n"))
	return append(bytes.TrimRight(src, "\n"), '\n')
}

// KotlinString quotes s as a Kotlin string literal. '$' is escaped so routes
// and names are never read as string templates.
func KotlinString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '$':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

var hardKeywords = map[string]bool{
	"as": true, "break": true, "class": true, "continue": true, "do": true,
	"else": true, "false": true, "for": true, "fun": true, "if": true,
	"in": true, "interface": true, "is": true, "null": true, "object": true,
	"package": true, "return": true, "super": true, "this": true, "throw": true,
	"true": true, "try": true, "typealias": true, "typeof": true, "val": true,
	"var": true, "when": true, "while": true,
}

// KotlinName renders a dotted name, backquoting segments that are Kotlin hard
// keywords.
func KotlinName(dotted string) string {
	segments := strings.Split(dotted, ".")
	for i, seg := range segments {
		if hardKeywords[seg] {
			segments[i] = "`" + seg + "`"
		}
	}
	return strings.Join(segments, ".")
}
