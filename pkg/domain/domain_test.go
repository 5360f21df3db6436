package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "syncvault/pkg/domain-errors"
)

// TestParseIdentity_Invariants validates the trust-boundary rule:
// identities are non-empty, bounded, and free of whitespace.
func TestParseIdentity_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects embedded whitespace", func(t *testing.T) {
		_, err := ParseIdentity("alice bob")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized handle", func(t *testing.T) {
		_, err := ParseIdentity(strings.Repeat("G", MaxIdentityLength+1))
		require.Error(t, err)
	})

	t.Run("accepts a stellar-style address", func(t *testing.T) {
		id, err := ParseIdentity("GDQNY3PBOJOKYZSRMK2S7LHHGWZIUISD4QORETLMXEWXBI7KFZZMKTL3")
		require.NoError(t, err)
		assert.False(t, id.IsZero())
	})
}

func TestAmount(t *testing.T) {
	t.Run("supports values beyond 64 bits", func(t *testing.T) {
		big := MustParseAmount("170141183460469231731687303715884105727")
		sum := big.Add(NewAmount(1))
		assert.Equal(t, "170141183460469231731687303715884105728", sum.String())
		assert.True(t, sum.IsPositive())
	})

	t.Run("rejects fractional input", func(t *testing.T) {
		_, err := ParseAmount("1.5")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects exponent and non-digit forms", func(t *testing.T) {
		for _, in := range []string{"1e40000000", "1E2", "2e-1", "0x10", " 5", "5 ", "+", "-", "", "--5", "-+5", "1_000"} {
			_, err := ParseAmount(in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "%q", in)
		}
	})

	t.Run("bounds the digit count", func(t *testing.T) {
		_, err := ParseAmount(strings.Repeat("9", MaxAmountDigits))
		require.NoError(t, err)
		_, err = ParseAmount("-" + strings.Repeat("9", MaxAmountDigits+1))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts signed integers", func(t *testing.T) {
		assert.Equal(t, "12", MustParseAmount("+12").String())
		assert.True(t, MustParseAmount("-3").IsNegative())
		assert.True(t, MustParseAmount("000").IsZero())
	})

	t.Run("rejects exponent numbers in json", func(t *testing.T) {
		var payload struct {
			A Amount `json:"a"`
		}
		assert.Error(t, json.Unmarshal([]byte(`{"a":1e40000000}`), &payload))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseAmount("ten")
		require.Error(t, err)
	})

	t.Run("ordering", func(t *testing.T) {
		assert.True(t, NewAmount(40).LessThan(NewAmount(60)))
		assert.Equal(t, 0, NewAmount(100).Cmp(NewAmount(60).Add(NewAmount(40))))
		assert.True(t, NewAmount(5).Sub(NewAmount(6)).IsNegative())
		assert.True(t, ZeroAmount.IsZero())
	})

	t.Run("json accepts strings and numbers", func(t *testing.T) {
		var payload struct {
			A Amount `json:"a"`
			B Amount `json:"b"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"a":"25","b":7}`), &payload))
		assert.Equal(t, "25", payload.A.String())
		assert.Equal(t, "7", payload.B.String())

		out, err := json.Marshal(payload)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":"25","b":"7"}`, string(out))
	})
}
