// Package tmparser implements a parser for the line-oriented Turing machine
// specification language.
//
// A specification is a sequence of statements, one per line. Keywords are
// case-sensitive and lines match no more than one statement form:
//
//	% anything after a leading percent sign is a comment
//	INITIAL q0
//	BLANK #
//	FINAL  q2
//	HALT   done
//	q0 , 1 -> q1 , 0 , >
//
// Transition movements are < (left), > (right) and _ (stay). States are
// word-character tokens; symbols are exactly one character and may be any
// character the position makes unambiguous, including , % < > and _.
// Blank lines are ignored. INITIAL, BLANK and HALT may each appear once;
// FINAL may repeat.
//
// The parser is structured as a hand-rolled line classifier over a token
// stream:
//
//   - Lexer: converts raw bytes into tokens, with just enough line context
//     to tell comment markers from % used as a symbol.
//   - Parser: classifies each line (transitions first, then directives) and
//     drives a machine.Builder.
//
// Usage:
//
//	m, err := tmparser.Parse(src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(m)
//
// Grammar failures carry 1-based line positions as *UnrecognizedLineError,
// *DuplicateDirectiveError or *ParseError; builder and construction
// failures keep their machine package types.
package tmparser
