package domain

import (
	"crypto/ed25519"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "starbeam/pkg/domain-errors"
)

// TestParseIdentityKey validates the trust-boundary invariant that registry keys are
// exactly 32 bytes of hex.
func TestParseIdentityKey(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentityKey("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-hex", func(t *testing.T) {
		_, err := ParseIdentityKey(strings.Repeat("zz", 32))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		_, err := ParseIdentityKey(strings.Repeat("ab", 31))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts 0x prefix and round-trips", func(t *testing.T) {
		raw := strings.Repeat("03", 32)
		key, err := ParseIdentityKey("0x" + raw)
		require.NoError(t, err)
		assert.Equal(t, raw, key.String())
		assert.Equal(t, byte(3), key[31])
	})

	t.Run("all-zero key is valid", func(t *testing.T) {
		key, err := ParseIdentityKey(strings.Repeat("00", 32))
		require.NoError(t, err)
		assert.True(t, key.IsZero())
	})
}

func TestIdentityKeyFromExternal(t *testing.T) {
	key := IdentityKeyFromExternal(42)
	assert.Equal(t, byte(42), key[31])
	assert.Equal(t, IdentityKey{}, IdentityKeyFromExternal(0))
	assert.NotEqual(t, IdentityKeyFromExternal(1), IdentityKeyFromExternal(256))
}

func TestParseExternalID(t *testing.T) {
	id, err := ParseExternalID("42")
	require.NoError(t, err)
	assert.Equal(t, ExternalID(42), id)

	_, err = ParseExternalID("-1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseExternalID("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAddress(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	t.Run("derived address parses", func(t *testing.T) {
		addr, err := AddressFromPublicKey(pub)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(addr.String(), "sb"))

		parsed, err := ParseAddress(addr.String())
		require.NoError(t, err)
		assert.Equal(t, addr, parsed)
	})

	t.Run("derivation is deterministic", func(t *testing.T) {
		a, _ := AddressFromPublicKey(pub)
		b, _ := AddressFromPublicKey(pub)
		assert.Equal(t, a, b)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, in := range []string{"", "GABC", "sb", "sb0OIl", "sb" + strings.Repeat("1", 10)} {
			_, err := ParseAddress(in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", in)
		}
	})

	t.Run("rejects short public key", func(t *testing.T) {
		_, err := AddressFromPublicKey(pub[:16])
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestAmount(t *testing.T) {
	t.Run("parses positive decimal", func(t *testing.T) {
		a, err := ParseAmount("1000")
		require.NoError(t, err)
		assert.Equal(t, "1000", a.String())
	})

	t.Run("rejects zero, negative and garbage", func(t *testing.T) {
		for _, in := range []string{"0", "-5", "1.5", "abc", ""} {
			_, err := ParseAmount(in)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", in)
		}
	})

	t.Run("enforces the signed 128-bit ceiling", func(t *testing.T) {
		_, err := ParseAmount("170141183460469231731687303715884105727")
		require.NoError(t, err)

		_, err = ParseAmount("170141183460469231731687303715884105728")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("json uses decimal strings", func(t *testing.T) {
		var body struct {
			Amount Amount `json:"amount"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"amount":"250"}`), &body))
		assert.Equal(t, "250", body.Amount.String())

		out, err := json.Marshal(body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"250"}`, string(out))

		assert.Error(t, json.Unmarshal([]byte(`{"amount":250}`), &body))
	})
}
