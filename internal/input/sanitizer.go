package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/vozgraph/pkg/domain"
)

var (
	// DefaultMaxInputSize bounds one recognized phrase, in bytes.
	DefaultMaxInputSize = 1024
	// EnvMaxInputSize overrides the default limit.
	EnvMaxInputSize = "VOZGRAPH_MAX_INPUT_SIZE"
)

// ErrInvalidUTF8 is returned for input that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")

// Sanitize applies SanitizeLimit with the default or environment limit.
func Sanitize(input string) (string, error) {
	return SanitizeLimit(input, MaxInputSize())
}

// SanitizeLimit rejects oversized or invalid UTF-8 input and strips control
// characters other than newline, tab and carriage return.
// Oversized input is rejected rather than truncated.
func SanitizeLimit(input string, limit int) (string, error) {
	if limit > 0 && len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", domain.ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// MaxInputSize returns the limit from the environment or the default.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
