package domain

import (
	"strings"
	"unicode"

	dErrors "syncvault/pkg/domain-errors"
)

// MaxIdentityLength bounds identity handles accepted at trust boundaries.
const MaxIdentityLength = 128

// Identity is an opaque principal handle. Ownership is proven through the
// authentication capability, never inferred from the handle itself.
type Identity string

// ParseIdentity validates a handle received from outside the process.
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "identity is required")
	}
	if len(s) > MaxIdentityLength {
		return "", dErrors.New(dErrors.CodeValidation, "identity exceeds maximum length")
	}
	if strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "identity must not contain whitespace or control characters")
	}
	return Identity(s), nil
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i == ""
}

func (i Identity) String() string {
	return string(i)
}
