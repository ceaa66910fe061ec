package tmparser

import "unicode/utf8"

// Lexer tokenizes machine specification text into a stream of tokens.
//
// The grammar needs one piece of line context: % starts a comment only when
// nothing but whitespace precedes it on the line. Anywhere else % is an
// ordinary single-character token, since any character can serve as a tape
// symbol. Lexing never fails; every byte belongs to some token.
type Lexer struct {
	src         []byte
	pos         int // current byte offset
	line        int // current line (1-based)
	col         int // current column (1-based)
	atLineStart bool
	peeked      *Token
}

// NewLexer creates a new Lexer for the given source bytes.
func NewLexer(src []byte) *Lexer {
	return &Lexer{src: src, line: 1, col: 1, atLineStart: true}
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		tok := l.scan()
		l.peeked = &tok
	}
	return *l.peeked
}

// Next returns the next token and advances the lexer.
func (l *Lexer) Next() Token {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok
	}
	return l.scan()
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipSpace() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scan() Token {
	l.skipSpace()

	if l.atEnd() {
		return Token{Kind: TokenEOF, Pos: l.currentPos()}
	}

	pos := l.currentPos()
	ch := l.peek()

	switch {
	case ch == '\n':
		l.advance()
		l.atLineStart = true
		return Token{Kind: TokenNewline, Literal: "\n", Pos: pos}
	case ch == '%' && l.atLineStart:
		return l.scanComment()
	case ch == ',':
		l.advance()
		l.atLineStart = false
		return Token{Kind: TokenComma, Literal: ",", Pos: pos}
	case ch == '-' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		l.atLineStart = false
		return Token{Kind: TokenArrow, Literal: "->", Pos: pos}
	case isWordChar(ch):
		return l.scanIdent()
	}

	// Any other character is a candidate tape symbol. Decode a full rune so
	// multi-byte symbols stay intact.
	r, size := utf8.DecodeRune(l.src[l.pos:])
	l.pos += size
	l.col++
	l.atLineStart = false
	return Token{Kind: TokenChar, Literal: string(r), Pos: pos}
}

// scanComment consumes % and the rest of the line, excluding the newline.
func (l *Lexer) scanComment() Token {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}

	return Token{Kind: TokenComment, Literal: string(l.src[start:l.pos]), Pos: pos}
}

func (l *Lexer) scanIdent() Token {
	pos := l.currentPos()
	start := l.pos

	for !l.atEnd() && isWordChar(l.peek()) {
		l.advance()
	}

	l.atLineStart = false
	return Token{Kind: TokenIdent, Literal: string(l.src[start:l.pos]), Pos: pos}
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}
