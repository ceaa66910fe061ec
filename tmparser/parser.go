package tmparser

import (
	"fmt"
	"unicode/utf8"

	"github.com/martinemde/turing/machine"
)

// movements maps movement tokens to engine movements.
var movements = map[string]machine.Movement{
	"<": machine.MoveLeft,
	">": machine.MoveRight,
	"_": machine.NoMove,
}

// Parse parses a complete machine specification and constructs the machine.
// Returns a *UnrecognizedLineError, *DuplicateDirectiveError, or *ParseError
// on grammar failures; builder and construction failures surface unchanged.
func Parse(src string) (*machine.Machine, error) {
	p := New()
	if err := p.ParseString(src); err != nil {
		return nil, err
	}
	return p.Create()
}

// Parser translates specification text into calls on a machine builder. It
// accepts input incrementally, in chunks or single lines, and constructs the
// machine once the description is complete.
type Parser struct {
	builder *machine.Builder
}

// New creates a Parser backed by a fresh builder.
func New() *Parser {
	return &Parser{builder: machine.NewBuilder()}
}

// Builder returns the underlying builder.
func (p *Parser) Builder() *machine.Builder { return p.builder }

// ParseString parses src, one statement per line. Parsing stops at the first
// failing line; everything before it has already been applied to the
// builder.
func (p *Parser) ParseString(src string) error {
	lex := NewLexer([]byte(src))
	for lex.Peek().Kind != TokenEOF {
		if err := p.parseLine(lex); err != nil {
			return err
		}
	}
	return nil
}

// ParseLine parses a single line as if it appeared at the given 1-based line
// number, which shows up in error positions.
func (p *Parser) ParseLine(line string, lineNum int) error {
	lex := NewLexer([]byte(line))
	lex.line = lineNum
	for lex.Peek().Kind != TokenEOF {
		if err := p.parseLine(lex); err != nil {
			return err
		}
	}
	return nil
}

// Create constructs the machine from the accumulated description,
// delegating to the builder. Its failures surface unchanged.
func (p *Parser) Create() (*machine.Machine, error) {
	return p.builder.Create()
}

// Clean resets the underlying builder for reuse.
func (p *Parser) Clean() {
	p.builder.Clean()
}

// parseLine consumes one line worth of tokens, through its newline, and
// applies the statement to the builder.
func (p *Parser) parseLine(lex *Lexer) error {
	var toks []Token
	for {
		tok := lex.Next()
		if tok.Kind == TokenNewline || tok.Kind == TokenEOF {
			break
		}
		toks = append(toks, tok)
	}
	return p.parseStatement(toks)
}

// parseStatement classifies one line's tokens and applies the statement. A
// line holding an arrow anywhere is a transition; otherwise the leading
// keyword selects a directive. Blank and comment lines are ignored.
func (p *Parser) parseStatement(toks []Token) error {
	if len(toks) == 0 {
		return nil
	}
	if toks[0].Kind == TokenComment {
		return nil
	}
	for _, tok := range toks {
		if tok.Kind == TokenArrow {
			return p.parseTransition(toks)
		}
	}
	if toks[0].Kind == TokenIdent {
		switch toks[0].Literal {
		case "INITIAL":
			return p.parseInitial(toks)
		case "BLANK":
			return p.parseBlank(toks)
		case "FINAL":
			return p.parseFinal(toks)
		case "HALT":
			return p.parseHalt(toks)
		}
	}
	return unrecognized(toks[0].Pos)
}

// parseTransition parses: state , symbol -> state , symbol , movement.
func (p *Parser) parseTransition(toks []Token) error {
	c := &lineCursor{toks: toks}

	state, err := c.state()
	if err != nil {
		return err
	}
	if err := c.comma(); err != nil {
		return err
	}
	symbol, err := c.symbol()
	if err != nil {
		return err
	}
	if err := c.arrow(); err != nil {
		return err
	}
	newState, err := c.state()
	if err != nil {
		return err
	}
	if err := c.comma(); err != nil {
		return err
	}
	newSymbol, err := c.symbol()
	if err != nil {
		return err
	}
	if err := c.comma(); err != nil {
		return err
	}
	move, err := c.movement()
	if err != nil {
		return err
	}
	if err := c.end(); err != nil {
		return err
	}

	if err := p.builder.AddTransition(state, symbol, newState, newSymbol, move); err != nil {
		return wrapBuilderError(err, toks[0].Pos)
	}
	return nil
}

// parseInitial parses: INITIAL state.
func (p *Parser) parseInitial(toks []Token) error {
	if len(toks) != 2 || toks[1].Kind != TokenIdent {
		return unrecognized(toks[0].Pos)
	}
	if p.builder.HasInitialState() {
		return duplicateDirective("INITIAL", toks[0].Pos)
	}
	p.builder.SetInitialState(machine.State(toks[1].Literal))
	return nil
}

// parseBlank parses: BLANK symbol.
func (p *Parser) parseBlank(toks []Token) error {
	if len(toks) != 2 {
		return unrecognized(toks[0].Pos)
	}
	sym, ok := symbolOf(toks[1])
	if !ok {
		return unrecognized(toks[0].Pos)
	}
	if p.builder.HasBlankSymbol() {
		return duplicateDirective("BLANK", toks[0].Pos)
	}
	if err := p.builder.SetBlankSymbol(sym); err != nil {
		return wrapBuilderError(err, toks[0].Pos)
	}
	return nil
}

// parseFinal parses: FINAL state. The directive is repeatable.
func (p *Parser) parseFinal(toks []Token) error {
	if len(toks) != 2 || toks[1].Kind != TokenIdent {
		return unrecognized(toks[0].Pos)
	}
	p.builder.AddFinalState(machine.State(toks[1].Literal))
	return nil
}

// parseHalt parses: HALT state.
func (p *Parser) parseHalt(toks []Token) error {
	if len(toks) != 2 || toks[1].Kind != TokenIdent {
		return unrecognized(toks[0].Pos)
	}
	if p.builder.HasHaltState() {
		return duplicateDirective("HALT", toks[0].Pos)
	}
	p.builder.SetHaltState(machine.State(toks[1].Literal))
	return nil
}

// lineCursor walks one line's tokens, reporting any mismatch as an
// unrecognized line at the offending position.
type lineCursor struct {
	toks []Token
	i    int
}

func (c *lineCursor) errPos() Position {
	if c.i < len(c.toks) {
		return c.toks[c.i].Pos
	}
	return c.toks[len(c.toks)-1].Pos
}

func (c *lineCursor) state() (machine.State, error) {
	if c.i >= len(c.toks) || c.toks[c.i].Kind != TokenIdent {
		return "", unrecognized(c.errPos())
	}
	tok := c.toks[c.i]
	c.i++
	return machine.State(tok.Literal), nil
}

func (c *lineCursor) symbol() (machine.Symbol, error) {
	if c.i >= len(c.toks) {
		return "", unrecognized(c.errPos())
	}
	sym, ok := symbolOf(c.toks[c.i])
	if !ok {
		return "", unrecognized(c.toks[c.i].Pos)
	}
	c.i++
	return sym, nil
}

func (c *lineCursor) movement() (machine.Movement, error) {
	if c.i >= len(c.toks) {
		return 0, unrecognized(c.errPos())
	}
	move, ok := movements[c.toks[c.i].Literal]
	if !ok {
		return 0, unrecognized(c.toks[c.i].Pos)
	}
	c.i++
	return move, nil
}

func (c *lineCursor) comma() error {
	if c.i >= len(c.toks) || c.toks[c.i].Kind != TokenComma {
		return unrecognized(c.errPos())
	}
	c.i++
	return nil
}

func (c *lineCursor) arrow() error {
	if c.i >= len(c.toks) || c.toks[c.i].Kind != TokenArrow {
		return unrecognized(c.errPos())
	}
	c.i++
	return nil
}

func (c *lineCursor) end() error {
	if c.i != len(c.toks) {
		return unrecognized(c.toks[c.i].Pos)
	}
	return nil
}

// symbolOf reports whether tok can serve as a tape symbol: any single
// character, judged by position. Word-character symbols arrive as
// identifiers and must be exactly one rune wide.
func symbolOf(tok Token) (machine.Symbol, bool) {
	switch tok.Kind {
	case TokenChar, TokenComma:
		return machine.Symbol(tok.Literal), true
	case TokenIdent:
		if utf8.RuneCountInString(tok.Literal) == 1 {
			return machine.Symbol(tok.Literal), true
		}
	}
	return "", false
}

func unrecognized(pos Position) error {
	return &UnrecognizedLineError{ParseError{Message: "unrecognized line", Pos: pos}}
}

func duplicateDirective(directive string, pos Position) error {
	return &DuplicateDirectiveError{
		ParseError: ParseError{Message: fmt.Sprintf("duplicate %s directive", directive), Pos: pos},
		Directive:  directive,
	}
}

// wrapBuilderError surfaces a builder failure with the line position while
// keeping the typed cause reachable through errors.As.
func wrapBuilderError(err error, pos Position) error {
	return &ParseError{Message: err.Error(), Pos: pos, Cause: err}
}
