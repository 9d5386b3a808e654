package security

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "Pjk+k4hske5KkKtbaKSVDOgpllRl+0EI6oCAdx88XqI="

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("0xdeadbeef")
	require.NoError(t, err)
	assert.NotContains(t, enc, "deadbeef")

	again, err := c.Encrypt("0xdeadbeef")
	require.NoError(t, err)
	assert.NotEqual(t, enc, again, "nonce must be random")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", plain)
}

func TestCipherEmptyStaysEmpty(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, enc)

	plain, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestCipherRejectsTampering(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)

	_, err = c.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestNewCipherKeyValidation(t *testing.T) {
	_, err := NewCipher("not base64!")
	assert.Error(t, err)

	_, err = NewCipher(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 16))))
	assert.ErrorContains(t, err, "32 bytes")
}

func TestPackageHelpersUseEnvKey(t *testing.T) {
	enc, err := EncryptString("api-key")
	require.NoError(t, err)

	plain, err := DecryptString(enc)
	require.NoError(t, err)
	assert.Equal(t, "api-key", plain)
}
