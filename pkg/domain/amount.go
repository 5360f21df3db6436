package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	dErrors "syncvault/pkg/domain-errors"
)

// Amount is a signed integer token quantity of arbitrary precision. Values are
// kept integral: fractional input is rejected at parse time.
type Amount struct {
	d decimal.Decimal
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{d: decimal.Zero}

// NewAmount builds an Amount from an int64.
func NewAmount(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// MaxAmountDigits bounds the digits ParseAmount accepts. 78 digits hold any
// 256-bit value.
const MaxAmountDigits = 78

// ParseAmount parses a plain base-10 integer with an optional sign. Exponent
// and fractional forms are rejected before they reach decimal arithmetic.
func ParseAmount(s string) (Amount, error) {
	digits := s
	if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		digits = digits[1:]
	}
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return Amount{}, dErrors.New(dErrors.CodeValidation, "amount must be a base-10 integer")
	}
	if len(digits) > MaxAmountDigits {
		return Amount{}, dErrors.New(dErrors.CodeValidation, "amount has too many digits")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, dErrors.Wrap(err, dErrors.CodeValidation, "amount is not a number")
	}
	return Amount{d: d}, nil
}

// MustParseAmount is ParseAmount for constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) IsZero() bool     { return a.d.IsZero() }

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// Cmp returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }
func (a Amount) Equal(b Amount) bool    { return a.d.Equal(b.d) }

func (a Amount) String() string { return a.d.String() }

// MarshalJSON encodes the amount as a decimal string so values beyond 2^53
// survive JSON clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.d.String())
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.Trim(data, `"`)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*a = ZeroAmount
		return nil
	}
	parsed, err := ParseAmount(string(raw))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
