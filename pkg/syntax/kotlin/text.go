package kotlin

import (
	"regexp"
	"strings"

	"github.com/kobweb-dev/kobgen/pkg/syntax"
)

// The tree-sitter Kotlin grammar has changed the shape of import, package and
// annotation nodes between releases. These fragments are therefore decoded from
// node text, which is stable.

var (
	importAliasRe = regexp.MustCompile(`\s+as\s+`)
	calleeRe      = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:\s*\??\.\s*[A-Za-z_][A-Za-z0-9_]*)*)\s*(?:<[^(){}]*>)?\s*[({]`)
	useSiteRe     = regexp.MustCompile(`^(file|get|set|field|param|property|receiver|setparam|delegate)\s*:`)
)

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func packageName(text string) string {
	body := strings.TrimSpace(text)
	body = strings.TrimPrefix(body, "package")
	body = strings.TrimSuffix(strings.TrimSpace(body), ";")
	return strings.ReplaceAll(stripSpaces(body), "`", "")
}

// ParseImport decodes the text of an import directive. It returns nil when
// text is not an import.
func ParseImport(text string, line int) *syntax.Import {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "import") {
		return nil
	}
	body = strings.TrimSpace(strings.TrimPrefix(body, "import"))
	body = strings.TrimSuffix(body, ";")

	imp := &syntax.Import{Pos: line}
	path := body
	if loc := importAliasRe.FindStringIndex(body); loc != nil {
		path = body[:loc[0]]
		imp.Alias = strings.ReplaceAll(strings.TrimSpace(body[loc[1]:]), "`", "")
	}
	path = strings.ReplaceAll(stripSpaces(path), "`", "")
	if strings.HasSuffix(path, ".*") {
		imp.Wildcard = true
		path = strings.TrimSuffix(path, ".*")
	}
	if path == "" {
		return nil
	}
	imp.Path = path
	return imp
}

// ParseExpr summarizes an expression's callee. Non-call expressions yield an
// Expr with an empty Callee.
func ParseExpr(text string) *syntax.Expr {
	text = strings.TrimSpace(text)
	e := &syntax.Expr{Text: text}
	if m := calleeRe.FindStringSubmatch(text); m != nil {
		e.Callee = strings.ReplaceAll(stripSpaces(m[1]), "?", "")
	}
	return e
}

// ParseFileAnnotations decodes "@file:..." annotation text. All results carry
// the "file" target.
func ParseFileAnnotations(text string, line int) []*syntax.Annotation {
	anns := ParseAnnotations(text, line)
	for _, a := range anns {
		a.Target = "file"
	}
	return anns
}

// ParseAnnotations decodes annotation text, including the multi-annotation
// form "@[A B(x)]".
func ParseAnnotations(text string, line int) []*syntax.Annotation {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "@") {
		return nil
	}
	s = strings.TrimSpace(s[1:])

	target := ""
	if m := useSiteRe.FindStringSubmatch(s); m != nil {
		target = m[1]
		s = strings.TrimSpace(s[len(m[0]):])
	}

	multi := strings.HasPrefix(s, "[")
	if multi {
		s = strings.TrimPrefix(s, "[")
		if end := strings.LastIndex(s, "]"); end >= 0 {
			s = s[:end]
		}
	}

	var out []*syntax.Annotation
	p := annotationParser{s: s}
	for {
		p.skipSpace()
		if p.done() {
			break
		}
		a, ok := p.next()
		if !ok {
			break
		}
		a.Target = target
		a.Pos = line
		out = append(out, a)
		if !multi {
			break
		}
	}
	return out
}

type annotationParser struct {
	s   string
	pos int
}

func (p *annotationParser) done() bool { return p.pos >= len(p.s) }

func (p *annotationParser) skipSpace() {
	for p.pos < len(p.s) && isSpace(p.s[p.pos]) {
		p.pos++
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '.' || b == '`' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (p *annotationParser) next() (*syntax.Annotation, bool) {
	p.pos += len(p.s[p.pos:]) - len(strings.TrimPrefix(p.s[p.pos:], "@"))
	start := p.pos
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	name := strings.ReplaceAll(p.s[start:p.pos], "`", "")
	if name == "" {
		return nil, false
	}
	a := &syntax.Annotation{Name: name}

	p.skipGenerics()
	save := p.pos
	p.skipSpace()
	if p.done() || p.s[p.pos] != '(' {
		p.pos = save
		return a, true
	}
	end := matchingParen(p.s, p.pos)
	if end < 0 {
		end = len(p.s)
	}
	a.Args = parseArgs(p.s[p.pos+1 : end])
	p.pos = end + 1
	return a, true
}

func (p *annotationParser) skipGenerics() {
	if p.pos >= len(p.s) || p.s[p.pos] != '<' {
		return
	}
	depth := 0
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				p.pos++
				return
			}
		}
		p.pos++
	}
}

// matchingParen returns the index of the paren closing the one at open,
// skipping string literals, or -1.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '"':
			i = skipString(s, i)
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipString returns the index of the closing quote of the literal at i.
func skipString(s string, i int) int {
	if strings.HasPrefix(s[i:], `"""`) {
		if end := strings.Index(s[i+3:], `"""`); end >= 0 {
			return i + 3 + end + 2
		}
		return len(s) - 1
	}
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return len(s) - 1
}

func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			i = skipString(s, i)
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

var namedArgRe = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*)$`)

func parseArgs(s string) []syntax.Argument {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var args []syntax.Argument
	for _, part := range splitTopLevel(s) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var arg syntax.Argument
		if m := namedArgRe.FindStringSubmatch(part); m != nil {
			arg.Name = m[1]
			part = strings.TrimSpace(m[2])
		}
		arg.Value, arg.IsString = unquote(part)
		args = append(args, arg)
	}
	return args
}

// unquote decodes a Kotlin string literal without templates. Anything else is
// returned unchanged with ok false.
func unquote(s string) (value string, ok bool) {
	if strings.HasPrefix(s, `"""`) && strings.HasSuffix(s, `"""`) && len(s) >= 6 {
		inner := s[3 : len(s)-3]
		if strings.Contains(inner, "${") {
			return s, false
		}
		return inner, true
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s, false
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		if ch == '$' && i+1 < len(inner) && (inner[i+1] == '{' || isIdentStart(inner[i+1])) {
			return s, false
		}
		if ch != '\\' || i+1 >= len(inner) {
			b.WriteByte(ch)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String(), true
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ParseAnnotationRun decodes the annotations at the start of text, one after
// another, and returns them with the text that follows. Lines are counted from
// line. Depending on what follows in the file, the grammar may leave
// "@A\n@B(x)" above a declaration as a separate expression node; this recovers
// those annotations from the node text.
func ParseAnnotationRun(text string, line int) ([]*syntax.Annotation, string) {
	var out []*syntax.Annotation
	s := text
	for {
		trimmed := strings.TrimLeft(s, " \t\r\n")
		line += strings.Count(s[:len(s)-len(trimmed)], "\n")
		s = trimmed
		if !strings.HasPrefix(s, "@") {
			return out, s
		}
		n := annotationLen(s)
		anns := ParseAnnotations(s[:n], line)
		if len(anns) == 0 {
			return out, s
		}
		out = append(out, anns...)
		line += strings.Count(s[:n], "\n")
		s = s[n:]
	}
}

// annotationLen returns the length of the annotation s starts with: the name,
// type arguments and an argument list opened on the same line.
func annotationLen(s string) int {
	i := 1
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	if m := useSiteRe.FindStringIndex(s[i:]); m != nil {
		i += m[1]
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}
	if i < len(s) && s[i] == '[' {
		for j := i + 1; j < len(s); j++ {
			switch s[j] {
			case '"':
				j = skipString(s, j)
			case ']':
				return j + 1
			}
		}
		return len(s)
	}

	p := annotationParser{s: s, pos: i}
	for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
		p.pos++
	}
	p.skipGenerics()
	j := p.pos
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j < len(s) && s[j] == '(' {
		if end := matchingParen(s, j); end >= 0 {
			return end + 1
		}
		return len(s)
	}
	return p.pos
}
