package tmparser

import "fmt"

// ParseError is the base error type for all tmparser errors.
type ParseError struct {
	Message string
	Pos     Position
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("line %d, col %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Cause }

// UnrecognizedLineError reports a line that matches no statement form.
type UnrecognizedLineError struct{ ParseError }

// DuplicateDirectiveError reports a single-use directive that appears twice.
type DuplicateDirectiveError struct {
	ParseError
	Directive string
}
