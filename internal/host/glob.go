package host

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Glob is a compiled workspace glob pattern. It supports **, *, ?, {a,b} and
// [...] classes and matches slash-separated relative paths.
type Glob struct {
	pattern string
	re      *regexp.Regexp
}

var globCache sync.Map

// CompileGlob compiles pattern. An empty pattern matches nothing.
func CompileGlob(pattern string) (*Glob, error) {
	if cached, ok := globCache.Load(pattern); ok {
		return cached.(*Glob), nil
	}
	expr, err := globToRegexp(pattern)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	g := &Glob{pattern: pattern, re: re}
	globCache.Store(pattern, g)
	return g, nil
}

// Match reports whether the relative path matches.
func (g *Glob) Match(rel string) bool {
	if g == nil || g.pattern == "" {
		return false
	}
	return g.re.MatchString(strings.TrimPrefix(rel, "./"))
}

// String returns the source pattern.
func (g *Glob) String() string { return g.pattern }

func globToRegexp(pattern string) (string, error) {
	var b strings.Builder
	b.WriteString("^")
	depth := 0
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				// "**/" matches zero or more directories.
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(?:.*/)?")
					i += 2
				} else {
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '{':
			depth++
			b.WriteString("(?:")
		case '}':
			if depth == 0 {
				b.WriteString(`\}`)
				continue
			}
			depth--
			b.WriteString(")")
		case ',':
			if depth > 0 {
				b.WriteString("|")
			} else {
				b.WriteString(",")
			}
		case '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				return "", fmt.Errorf("glob %q: unterminated character class", pattern)
			}
			class := pattern[i+1 : i+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	if depth != 0 {
		return "", fmt.Errorf("glob %q: unbalanced braces", pattern)
	}
	b.WriteString("$")
	return b.String(), nil
}

// MatchGlob is CompileGlob followed by Match. Malformed patterns match nothing.
func MatchGlob(pattern, rel string) bool {
	g, err := CompileGlob(pattern)
	if err != nil {
		return false
	}
	return g.Match(rel)
}

// DefaultExcludeGlob excludes the usual dependency and build directories.
const DefaultExcludeGlob = "**/{node_modules,.git,out,dist,.vscode,.idea}/**"
