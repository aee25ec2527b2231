// Package textutil decodes text payloads from files and the network.
package textutil

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrInvalidUTF8 is returned when input is neither valid UTF-8 nor BOM-marked UTF-16.
	ErrInvalidUTF8 = encoding.ErrInvalidUTF8
	// ErrTooLarge is returned when input is longer than the limit given to ReadAll.
	ErrTooLarge = errors.New("input too large")
)

// NewReader strips a UTF-8 BOM, decodes BOM-marked UTF-16 and otherwise validates UTF-8.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(encoding.UTF8Validator))
}

// ReadAll reads r through NewReader. When limit > 0, input longer than limit bytes
// fails with ErrTooLarge instead of being cut short.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(NewReader(r))
	}

	lr := &io.LimitedReader{R: r, N: limit + 1}

	data, err := io.ReadAll(NewReader(lr))
	if lr.N == 0 {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	return data, err
}

// SplitTokens splits s on commas and any whitespace and drops blank tokens.
func SplitTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', ' ', '\t', '\r', '\n', '　', '，':
			return true
		}

		return false
	})

	tokens := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tokens = append(tokens, f)
		}
	}

	return tokens
}
