// Package parser provides tree-sitter based parsing for the languages the
// headless host understands.
//
// A parse yields the syntax tree, the declarations found in it as a symbol
// outline, and the syntax errors the grammar recovered from. Offsets are byte
// offsets into the parsed source; callers convert them to editor positions.
package parser

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a supported programming language.
type Language string

const (
	// Go represents the Go programming language.
	Go Language = "go"
	// TypeScript represents the TypeScript programming language.
	TypeScript Language = "typescript"
	// TSX is TypeScript with JSX.
	TSX Language = "tsx"
	// JavaScript represents the JavaScript programming language, JSX included.
	JavaScript Language = "javascript"
	// Python represents the Python programming language.
	Python Language = "python"
	// Rust represents the Rust programming language.
	Rust Language = "rust"
)

// Parser wraps tree-sitter for one language. A Parser is not safe for
// concurrent use.
type Parser struct {
	parser *sitter.Parser
	lang   Language
	rules  map[string]rule
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the AST.
	Root *sitter.Node
	// Source is the original source code that was parsed.
	Source []byte
	// Language is the programming language of the source.
	Language Language

	rules map[string]rule
}

// NewParser creates a parser for the given language.
// Returns an UnsupportedLanguageError if the language is not supported.
func NewParser(lang Language) (*Parser, error) {
	var (
		grammar *sitter.Language
		rules   map[string]rule
	)

	switch lang {
	case Go:
		grammar, rules = goGrammar(), goRules
	case TypeScript:
		grammar, rules = typeScriptGrammar(), typeScriptRules
	case TSX:
		grammar, rules = tsxGrammar(), typeScriptRules
	case JavaScript:
		grammar, rules = javaScriptGrammar(), typeScriptRules
	case Python:
		grammar, rules = pythonGrammar(), pythonRules
	case Rust:
		grammar, rules = rustGrammar(), rustRules
	default:
		return nil, &UnsupportedLanguageError{Language: string(lang)}
	}

	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return &Parser{parser: p, lang: lang, rules: rules}, nil
}

// Parse parses source code and returns the AST.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{Language: p.lang, Err: err}
	}

	return &ParseResult{
		Tree:     tree,
		Root:     tree.RootNode(),
		Source:   source,
		Language: p.lang,
		rules:    p.rules,
	}, nil
}

// Language returns the language this parser is configured for.
func (p *Parser) Language() Language {
	return p.lang
}

// Close releases parser resources.
// After calling Close, the parser should not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors returns true if the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	if r.Root == nil {
		return false
	}
	return r.Root.HasError()
}

// WalkNodes traverses the AST depth-first, calling the visitor function
// for each node. If the visitor returns false, the node's children are
// skipped.
func (r *ParseResult) WalkNodes(visitor func(*sitter.Node) bool) {
	if r.Root == nil {
		return
	}
	walkNode(r.Root, visitor)
}

func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkNode(node.Child(i), visitor)
	}
}

// NodeText returns the source text for a node.
func (r *ParseResult) NodeText(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}

// ParseSource parses source in lang with a throwaway parser.
func ParseSource(ctx context.Context, lang Language, source []byte) (*ParseResult, error) {
	p, err := NewParser(lang)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Parse(ctx, source)
}

// LanguageFromID maps an editor language identifier to a parser language.
// Returns empty string if the identifier is not supported.
func LanguageFromID(id string) Language {
	switch id {
	case "go":
		return Go
	case "typescript":
		return TypeScript
	case "typescriptreact":
		return TSX
	case "javascript", "javascriptreact":
		return JavaScript
	case "python":
		return Python
	case "rust":
		return Rust
	default:
		return ""
	}
}

// LanguageFromExtension returns the language for a file extension.
// Returns empty string if the extension is not recognized.
func LanguageFromExtension(ext string) Language {
	switch ext {
	case ".go":
		return Go
	case ".ts", ".mts", ".cts":
		return TypeScript
	case ".tsx":
		return TSX
	case ".js", ".jsx", ".mjs", ".cjs":
		return JavaScript
	case ".py", ".pyi":
		return Python
	case ".rs":
		return Rust
	default:
		return ""
	}
}

// SupportedExtensions returns all file extensions supported for parsing.
func SupportedExtensions() []string {
	return []string{
		".go",
		".ts", ".mts", ".cts", ".tsx",
		".js", ".jsx", ".mjs", ".cjs",
		".py", ".pyi",
		".rs",
	}
}

// Languages returns every supported language.
func Languages() []Language {
	return []Language{Go, TypeScript, TSX, JavaScript, Python, Rust}
}
