package tmparser

// TokenKind identifies the type of a lexical token.
type TokenKind int

const (
	TokenEOF     TokenKind = iota
	TokenNewline           // line terminator
	TokenIdent             // [A-Za-z0-9_]+ run: states, keywords, word symbols
	TokenChar              // any other single character
	TokenArrow             // ->
	TokenComma             // ,
	TokenComment           // % to end of line, only at the start of a line
)

var tokenNames = map[TokenKind]string{
	TokenEOF:     "EOF",
	TokenNewline: "newline",
	TokenIdent:   "identifier",
	TokenChar:    "character",
	TokenArrow:   "'->'",
	TokenComma:   "','",
	TokenComment: "comment",
}

func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Kind    TokenKind
	Literal string // raw text content
	Pos     Position
}

// Position identifies a location in the source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // byte offset
}
