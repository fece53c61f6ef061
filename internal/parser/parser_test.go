package parser

import (
	"context"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testGoSource = `package main

import "fmt"

// Greeter is a simple interface for greeting.
type Greeter interface {
	Greet(name string) string
}

// SimpleGreeter implements Greeter.
type SimpleGreeter struct {
	prefix string
}

const defaultPrefix = "Hello, "

// Greet returns a greeting for the given name.
func (s *SimpleGreeter) Greet(name string) string {
	local := s.prefix
	return local + name
}

func main() {
	g := &SimpleGreeter{prefix: defaultPrefix}
	fmt.Println(g.Greet("World"))
}
`

func parse(t *testing.T, lang Language, src string) *ParseResult {
	t.Helper()
	res, err := ParseSource(context.Background(), lang, []byte(src))
	if err != nil {
		t.Fatalf("ParseSource(%s): %v", lang, err)
	}
	t.Cleanup(res.Close)
	return res
}

// outline renders symbols as "name:kind" with children indented by a dot.
func outline(symbols []Symbol) []string {
	var out []string
	for _, f := range Flatten(symbols) {
		prefix := ""
		if f.Container != "" {
			prefix = f.Container + "."
		}
		out = append(out, prefix+f.Name+":"+kindName(f.Kind))
	}
	return out
}

func kindName(k protocol.SymbolKind) string {
	switch k {
	case protocol.SymbolKindFunction:
		return "function"
	case protocol.SymbolKindMethod:
		return "method"
	case protocol.SymbolKindConstructor:
		return "constructor"
	case protocol.SymbolKindClass:
		return "class"
	case protocol.SymbolKindStruct:
		return "struct"
	case protocol.SymbolKindInterface:
		return "interface"
	case protocol.SymbolKindField:
		return "field"
	case protocol.SymbolKindProperty:
		return "property"
	case protocol.SymbolKindConstant:
		return "constant"
	case protocol.SymbolKindVariable:
		return "variable"
	case protocol.SymbolKindEnum:
		return "enum"
	case protocol.SymbolKindEnumMember:
		return "member"
	case protocol.SymbolKindObject:
		return "object"
	case protocol.SymbolKindModule:
		return "module"
	}
	return "other"
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNewParser(t *testing.T) {
	t.Run("creates every supported parser", func(t *testing.T) {
		for _, lang := range Languages() {
			p, err := NewParser(lang)
			if err != nil {
				t.Fatalf("NewParser(%s) failed: %v", lang, err)
			}
			if p.Language() != lang {
				t.Errorf("expected language %s, got %s", lang, p.Language())
			}
			p.Close()
		}
	})

	t.Run("rejects unsupported language", func(t *testing.T) {
		_, err := NewParser(Language("fortran"))
		if err == nil {
			t.Fatal("expected error for unsupported language")
		}
		if _, ok := err.(*UnsupportedLanguageError); !ok {
			t.Errorf("expected UnsupportedLanguageError, got %T", err)
		}
	})
}

func TestParse(t *testing.T) {
	res := parse(t, Go, testGoSource)
	if res.Root == nil || res.Root.Type() != "source_file" {
		t.Fatalf("root = %v", res.Root)
	}
	if res.HasErrors() {
		t.Error("valid source reported errors")
	}
	if string(res.Source) != testGoSource {
		t.Error("source was not preserved")
	}
}

func TestSymbols(t *testing.T) {
	tests := []struct {
		name string
		lang Language
		src  string
		want []string
	}{
		{
			name: "go",
			lang: Go,
			src:  testGoSource,
			want: []string{
				"Greeter:interface",
				"Greeter.Greet:method",
				"SimpleGreeter:struct",
				"SimpleGreeter.prefix:field",
				"defaultPrefix:constant",
				"Greet:method",
				"main:function",
			},
		},
		{
			name: "typescript",
			lang: TypeScript,
			src: `interface Shape { area(): number }
export class Circle {
  radius = 1;
  constructor(r: number) { this.radius = r; }
  area() { return 3 * this.radius; }
}
const unit = 1;
let count = 0;
export const make = (r: number) => new Circle(r);
function helper() { const inner = 2; return inner; }
`,
			want: []string{
				"Shape:interface",
				"Shape.area:method",
				"Circle:class",
				"Circle.radius:field",
				"Circle.constructor:constructor",
				"Circle.area:method",
				"unit:constant",
				"count:variable",
				"make:function",
				"helper:function",
			},
		},
		{
			name: "python",
			lang: Python,
			src: `class Stack:
    def __init__(self):
        self.items = []

    @property
    def size(self):
        return len(self.items)

def top(stack):
    def inner():
        pass
    return stack.items[-1]
`,
			want: []string{
				"Stack:class",
				"Stack.__init__:constructor",
				"Stack.size:method",
				"top:function",
			},
		},
		{
			name: "rust",
			lang: Rust,
			src: `struct Point { x: i32, y: i32 }
enum Dir { Up, Down }
trait Area { fn area(&self) -> f64; }
impl Point {
    fn new() -> Self { Point { x: 0, y: 0 } }
}
const ORIGIN: i32 = 0;
`,
			want: []string{
				"Point:struct",
				"Point.x:field",
				"Point.y:field",
				"Dir:enum",
				"Dir.Up:member",
				"Dir.Down:member",
				"Area:interface",
				"Area.area:method",
				"impl Point:object",
				"impl Point.new:method",
				"ORIGIN:constant",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outline(parse(t, tt.lang, tt.src).Symbols())
			if !equalStrings(got, tt.want) {
				t.Errorf("outline =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestSymbolOffsets(t *testing.T) {
	res := parse(t, Go, testGoSource)
	for _, s := range res.Symbols() {
		if s.Name != "main" {
			continue
		}
		if got := testGoSource[s.NameStart:s.NameEnd]; got != "main" {
			t.Errorf("name span = %q", got)
		}
		if got := testGoSource[s.Start : s.Start+9]; got != "func main" {
			t.Errorf("declaration span starts %q", got)
		}
		if s.Detail != "func main()" {
			t.Errorf("detail = %q", s.Detail)
		}
		return
	}
	t.Fatal("main not found")
}

func TestSymbolsEmptySource(t *testing.T) {
	syms := parse(t, Python, "").Symbols()
	if syms == nil || len(syms) != 0 {
		t.Errorf("symbols = %#v, want empty non-nil", syms)
	}
}

func TestSyntaxErrors(t *testing.T) {
	t.Run("valid source has none", func(t *testing.T) {
		errs := parse(t, Go, testGoSource).SyntaxErrors()
		if errs == nil || len(errs) != 0 {
			t.Errorf("errors = %#v", errs)
		}
	})

	t.Run("broken source is reported", func(t *testing.T) {
		src := "package main\n\nfunc main() {\n\tx := (1 + \n}\n"
		res := parse(t, Go, src)
		if !res.HasErrors() {
			t.Fatal("expected HasErrors")
		}
		errs := res.SyntaxErrors()
		if len(errs) == 0 {
			t.Fatal("no syntax errors reported")
		}
		for _, e := range errs {
			if e.Message == "" || e.End < e.Start || int(e.End) > len(src) {
				t.Errorf("bad error %+v", e)
			}
		}
	})
}

func TestLanguageLookup(t *testing.T) {
	tests := []struct {
		id, ext string
		want    Language
	}{
		{"go", ".go", Go},
		{"typescript", ".ts", TypeScript},
		{"typescriptreact", ".tsx", TSX},
		{"javascriptreact", ".jsx", JavaScript},
		{"python", ".py", Python},
		{"rust", ".rs", Rust},
		{"ruby", ".rb", ""},
	}
	for _, tt := range tests {
		if got := LanguageFromID(tt.id); got != tt.want {
			t.Errorf("LanguageFromID(%q) = %q, want %q", tt.id, got, tt.want)
		}
		if got := LanguageFromExtension(tt.ext); got != tt.want {
			t.Errorf("LanguageFromExtension(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}
