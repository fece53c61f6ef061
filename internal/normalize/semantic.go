package normalize

import (
	"math/bits"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/bifrost-mcp/bifrost/internal/host"
)

// Token is one decoded semantic token with absolute coordinates.
type Token struct {
	Line           int      `json:"line"`
	Character      int      `json:"character"`
	Length         int      `json:"length"`
	TokenType      string   `json:"tokenType"`
	TokenModifiers []string `json:"tokenModifiers"`
}

// SemanticTokens is the decoded provider answer.
type SemanticTokens struct {
	ResultID string  `json:"resultId,omitempty"`
	Tokens   []Token `json:"tokens"`
}

// DecodeTokens expands the relative five-integer encoding. Trailing integers
// that do not form a full token are ignored.
func DecodeTokens(in *host.SemanticTokens) SemanticTokens {
	out := SemanticTokens{Tokens: []Token{}}
	if in == nil {
		return out
	}
	out.ResultID = in.ResultID
	line, char := 0, 0
	for i := 0; i+5 <= len(in.Data); i += 5 {
		deltaLine, deltaStart := int(in.Data[i]), int(in.Data[i+1])
		if deltaLine > 0 {
			line += deltaLine
			char = deltaStart
		} else {
			char += deltaStart
		}
		out.Tokens = append(out.Tokens, Token{
			Line:           line,
			Character:      char,
			Length:         int(in.Data[i+2]),
			TokenType:      legendName(in.Legend.TokenTypes, int(in.Data[i+3])),
			TokenModifiers: modifierNames(in.Legend.TokenModifiers, in.Data[i+4]),
		})
	}
	return out
}

func legendName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

func modifierNames(names []string, mask uint32) []string {
	out := []string{}
	for mask != 0 {
		bit := bits.TrailingZeros32(mask)
		mask &^= 1 << bit
		out = append(out, legendName(names, bit))
	}
	return out
}

// fallbackTokenTypes is indexed by symbol kind minus one. Kinds past the end
// map to "unknown".
var fallbackTokenTypes = []string{
	"namespace", "class", "enum", "interface", "struct", "typeParameter",
	"type", "parameter", "variable", "property", "enumMember", "decorator",
	"event", "function", "method", "macro", "keyword", "modifier", "comment",
	"string", "number", "regexp", "operator",
}

// FallbackTokenType approximates a token type from a symbol kind.
func FallbackTokenType(kind protocol.SymbolKind) string {
	return legendName(fallbackTokenTypes, int(kind)-1)
}

// SymbolToken is a symbol standing in for a semantic token.
type SymbolToken struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Range     Range  `json:"range"`
	TokenType string `json:"tokenType"`
}

// SymbolTokens is the answer used when no semantic token provider is available.
type SymbolTokens struct {
	Fallback bool          `json:"fallback"`
	Symbols  []SymbolToken `json:"symbols"`
}

// TokensFromSymbols builds the fallback answer from top-level symbols.
func TokensFromSymbols(syms []protocol.DocumentSymbol) SymbolTokens {
	out := SymbolTokens{Fallback: true, Symbols: make([]SymbolToken, 0, len(syms))}
	for _, s := range syms {
		out.Symbols = append(out.Symbols, SymbolToken{
			Name:      s.Name,
			Kind:      SymbolKindName(s.Kind),
			Range:     FromRange(s.Range),
			TokenType: FallbackTokenType(s.Kind),
		})
	}
	return out
}
