package tokenizer

import (
	"errors"
	"fmt"
)

var (
	// ErrIO wraps failures to open or read a vocabulary file.
	ErrIO = errors.New("vocabulary io failure")

	// ErrConfiguration is returned for vocabularies that parse but cannot
	// drive a total, deterministic merge: missing base bytes, duplicate
	// byte sequences or ranks, or entries with no two-part decomposition.
	ErrConfiguration = errors.New("invalid vocabulary")

	// ErrEncodingImpossible is the panic value raised when a final symbol
	// has no vocabulary id. It cannot happen with a validated Vocabulary.
	ErrEncodingImpossible = errors.New("symbol has no vocabulary entry")
)

// FormatError reports a malformed vocabulary line.
type FormatError struct {
	Path   string // empty when read from a stream
	Line   int    // 1-based
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	where := fmt.Sprintf("line %d", e.Line)
	if e.Path != "" {
		where = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}

	msg := fmt.Sprintf("vocabulary %s: %s", where, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}
