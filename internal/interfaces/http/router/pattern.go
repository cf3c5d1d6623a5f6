// Package router implements the storefront's URL dispatch table. Typed
// "<conv:name>" path patterns are grouped into ordered tables and compiled
// into a URLConf that is mounted on gin and resolves and reverses URLs by name.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Converter names a path parameter type
type Converter string

// Supported converters
const (
	ConvInt  Converter = "int"
	ConvSlug Converter = "slug"
	ConvStr  Converter = "str"
	ConvUUID Converter = "uuid"
	ConvPath Converter = "path"
)

var (
	intRe   = regexp.MustCompile(`^[0-9]+$`)
	slugRe  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	uuidRe  = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	ident   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	errPath = errors.New("path parameters must be the last segment")
)

// Valid reports whether value is accepted by the converter
func (c Converter) Valid(value string) bool {
	switch c {
	case ConvInt:
		return intRe.MatchString(value)
	case ConvSlug:
		return slugRe.MatchString(value)
	case ConvUUID:
		return uuidRe.MatchString(value)
	case ConvStr:
		return value != "" && !strings.Contains(value, "/")
	case ConvPath:
		return value != ""
	}
	return false
}

// OpenAPIType is the schema type used for parameters of this converter
func (c Converter) OpenAPIType() (typ, format string) {
	switch c {
	case ConvInt:
		return "integer", ""
	case ConvUUID:
		return "string", "uuid"
	}
	return "string", ""
}

// Param is a typed path parameter
type Param struct {
	Name      string
	Converter Converter
}

type segment struct {
	literal string
	param   *Param
}

// Pattern is a parsed path pattern such as "catalogue/<slug:slug>/<int:pk>/".
// Patterns are relative: they never start with a slash.
type Pattern struct {
	raw           string
	segments      []segment
	trailingSlash bool
}

// ParsePattern parses a path pattern such as "catalogue/<slug:slug>/<int:pk>/"
func ParsePattern(s string) (Pattern, error) {
	p := Pattern{raw: s}
	if s == "" {
		return p, nil
	}
	if strings.HasPrefix(s, "/") {
		return Pattern{}, fmt.Errorf("pattern %q must not start with '/'", s)
	}

	parts := strings.Split(s, "/")
	if parts[len(parts)-1] == "" {
		p.trailingSlash = true
		parts = parts[:len(parts)-1]
	}

	seen := make(map[string]bool)
	for i, part := range parts {
		if part == "" {
			return Pattern{}, fmt.Errorf("pattern %q has an empty segment", s)
		}
		if !strings.ContainsAny(part, "<>") {
			p.segments = append(p.segments, segment{literal: part})
			continue
		}
		param, err := parseParam(part)
		if err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: %w", s, err)
		}
		if seen[param.Name] {
			return Pattern{}, fmt.Errorf("pattern %q: duplicate parameter %q", s, param.Name)
		}
		seen[param.Name] = true
		if param.Converter == ConvPath && (i != len(parts)-1 || p.trailingSlash) {
			return Pattern{}, fmt.Errorf("pattern %q: %w", s, errPath)
		}
		p.segments = append(p.segments, segment{param: param})
	}
	return p, nil
}

// MustParsePattern is ParsePattern that panics on error
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// parseParam parses a whole "<conv:name>" or "<name>" segment
func parseParam(part string) (*Param, error) {
	if !strings.HasPrefix(part, "<") || !strings.HasSuffix(part, ">") || strings.Count(part, "<") != 1 {
		return nil, fmt.Errorf("parameter %q must fill a whole segment", part)
	}
	body := part[1 : len(part)-1]
	conv, name, ok := strings.Cut(body, ":")
	if !ok {
		conv, name = string(ConvStr), body
	}
	if name == "" {
		return nil, fmt.Errorf("parameter %q has no name", part)
	}
	if !ident.MatchString(name) {
		return nil, fmt.Errorf("parameter name %q is not an identifier", name)
	}
	switch c := Converter(conv); c {
	case ConvInt, ConvSlug, ConvStr, ConvUUID, ConvPath:
		return &Param{Name: name, Converter: c}, nil
	}
	return nil, fmt.Errorf("unknown converter %q", conv)
}

// String returns the pattern as written
func (p Pattern) String() string {
	return p.raw
}

// Params lists the pattern's parameters in order
func (p Pattern) Params() []Param {
	var params []Param
	for _, seg := range p.segments {
		if seg.param != nil {
			params = append(params, *seg.param)
		}
	}
	return params
}

// GinPath converts the pattern to a gin route path
func (p Pattern) GinPath() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		switch {
		case seg.param == nil:
			b.WriteString(seg.literal)
		case seg.param.Converter == ConvPath:
			b.WriteString("*" + seg.param.Name)
		default:
			b.WriteString(":" + seg.param.Name)
		}
	}
	if p.trailingSlash || len(p.segments) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

// OpenAPIPath converts the pattern to an OpenAPI path template
func (p Pattern) OpenAPIPath() string {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.param == nil {
			b.WriteString(seg.literal)
		} else {
			b.WriteString("{" + seg.param.Name + "}")
		}
	}
	if p.trailingSlash || len(p.segments) == 0 {
		b.WriteByte('/')
	}
	return b.String()
}

// Match matches a request path against the pattern, validating every
// parameter with its converter
func (p Pattern) Match(path string) (map[string]string, bool) {
	rest := strings.TrimPrefix(path, "/")
	params := make(map[string]string)
	if len(p.segments) == 0 {
		return params, rest == ""
	}

	last := len(p.segments) - 1
	for i, seg := range p.segments {
		if seg.param != nil && seg.param.Converter == ConvPath {
			if !ConvPath.Valid(rest) {
				return nil, false
			}
			params[seg.param.Name] = rest
			return params, true
		}

		part, tail, found := strings.Cut(rest, "/")
		switch {
		case i < last && !found:
			return nil, false
		case i == last && p.trailingSlash && (!found || tail != ""):
			return nil, false
		case i == last && !p.trailingSlash && found:
			return nil, false
		}
		rest = tail

		if seg.param == nil {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		if !seg.param.Converter.Valid(part) {
			return nil, false
		}
		params[seg.param.Name] = part
	}
	return params, true
}

// prefixable reports whether the pattern can head a subtree
func (p Pattern) prefixable() bool {
	if len(p.segments) > 0 && !p.trailingSlash {
		return false
	}
	for _, param := range p.Params() {
		if param.Converter == ConvPath {
			return false
		}
	}
	return true
}

// MatchPrefix matches the pattern against the start of path and returns the
// remainder. The pattern must end in a slash.
func (p Pattern) MatchPrefix(path string) (map[string]string, string, bool) {
	rest := strings.TrimPrefix(path, "/")
	end := 0
	for range p.segments {
		i := strings.IndexByte(rest[end:], '/')
		if i < 0 {
			return nil, "", false
		}
		end += i + 1
	}
	params, ok := p.Match("/" + rest[:end])
	if !ok {
		return nil, "", false
	}
	return params, rest[end:], true
}

// Build fills the pattern with args and returns a rooted path
func (p Pattern) Build(args map[string]string) (string, error) {
	var b strings.Builder
	for _, seg := range p.segments {
		b.WriteByte('/')
		if seg.param == nil {
			b.WriteString(seg.literal)
			continue
		}
		value, ok := args[seg.param.Name]
		if !ok {
			return "", fmt.Errorf("missing argument %q", seg.param.Name)
		}
		if !seg.param.Converter.Valid(value) {
			return "", fmt.Errorf("argument %q=%q does not match converter %s", seg.param.Name, value, seg.param.Converter)
		}
		if seg.param.Converter == ConvPath {
			parts := strings.Split(value, "/")
			for i := range parts {
				parts[i] = url.PathEscape(parts[i])
			}
			b.WriteString(strings.Join(parts, "/"))
			continue
		}
		b.WriteString(url.PathEscape(value))
	}
	if p.trailingSlash || len(p.segments) == 0 {
		b.WriteByte('/')
	}
	return b.String(), nil
}
