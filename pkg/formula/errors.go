package formula

import "fmt"

// SyntaxError reports a malformed or disallowed construct in a formula,
// including its position in the formula text.
type SyntaxError struct {
	Formula string
	Pos     int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid formula %q: %s (position %d)", e.Formula, e.Msg, e.Pos)
}

// InvalidOffsetError reports a positive or non-integer period offset in a
// lookback reference. Raised at parse time, before any graph construction.
type InvalidOffsetError struct {
	Formula string
	Name    string
	Offset  string
	Pos     int
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("invalid formula %q: reference %s[%s] uses an invalid period offset, only non-positive integers are allowed (position %d)",
		e.Formula, e.Name, e.Offset, e.Pos)
}
