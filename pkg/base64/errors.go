package base64

import (
	"errors"
	"fmt"
)

// Sentinel errors for the decoding failures. Use errors.Is to match them.
var (
	ErrInvalidCharacter = errors.New("input being decoded contains invalid characters")
	ErrInvalidLength    = errors.New("input isn't properly aligned")
)

type ErrorKind uint8

const (
	InvalidCharacter ErrorKind = iota
	InvalidLength
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCharacter:
		return "InvalidCharacter"
	case InvalidLength:
		return "InvalidLength"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// DecodeError reports why a Decode call failed.
// For InvalidCharacter, Offset is the index of the offending symbol.
// For InvalidLength, Offset is the input length.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
}

func newDecodeError(kind ErrorKind, offset int) *DecodeError {
	return &DecodeError{Kind: kind, Offset: offset}
}

func (e *DecodeError) Error() string {
	if e.Kind == InvalidLength {
		return fmt.Sprintf("%s (length %d)", e.Unwrap().Error(), e.Offset)
	}
	return fmt.Sprintf("%s (offset %d)", e.Unwrap().Error(), e.Offset)
}

func (e *DecodeError) Unwrap() error {
	if e.Kind == InvalidLength {
		return ErrInvalidLength
	}
	return ErrInvalidCharacter
}
