package tokencrypt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := New("unit-test-secret")
	require.NoError(t, err)

	plaintexts := []string{
		"",
		"ya29.a0AfH6SMBexampleaccesstoken",
		"1//0gExampleRefreshTokenWithSlashes",
		strings.Repeat("x", 4096),
	}

	for _, p := range plaintexts {
		envelope, err := c.Encrypt(p)
		require.NoError(t, err)

		out, err := c.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, p, out)
	}
}

func TestEncryptProducesFreshNonces(t *testing.T) {
	c, err := New("unit-test-secret")
	require.NoError(t, err)

	a, err := c.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := c.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEnvelopeFormat(t *testing.T) {
	c, err := New("unit-test-secret")
	require.NoError(t, err)

	envelope, err := c.Encrypt("token")
	require.NoError(t, err)

	parts := strings.SplitN(envelope, ":", 2)
	require.Len(t, parts, 2)
	assert.Regexp(t, "^[0-9a-f]+$", parts[0])
	assert.Regexp(t, "^[0-9a-f]+$", parts[1])
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	c1, err := New("secret-one")
	require.NoError(t, err)
	c2, err := New("secret-two")
	require.NoError(t, err)

	envelope, err := c1.Encrypt("super secret token")
	require.NoError(t, err)

	_, err = c2.Decrypt(envelope)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestDecryptMalformedEnvelope(t *testing.T) {
	c, err := New("unit-test-secret")
	require.NoError(t, err)

	for _, envelope := range []string{
		"",
		"not-an-envelope",
		"deadbeef",       // no separator
		"zz:zz",          // not hex
		"deadbeef:abcd",  // nonce too short
		"deadbeefdeadbeefdeadbeef:", // empty ciphertext
	} {
		_, err := c.Decrypt(envelope)
		assert.ErrorIs(t, err, ErrDecryptFailed, "envelope %q", envelope)
	}
}

func TestDecryptCorruptedCiphertext(t *testing.T) {
	c, err := New("unit-test-secret")
	require.NoError(t, err)

	envelope, err := c.Encrypt("super secret token")
	require.NoError(t, err)

	// Flip one hex digit in the ciphertext half
	idx := strings.Index(envelope, ":") + 1
	corrupted := []byte(envelope)
	if corrupted[idx] == 'a' {
		corrupted[idx] = 'b'
	} else {
		corrupted[idx] = 'a'
	}

	_, err = c.Decrypt(string(corrupted))
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = New("   ")
	assert.ErrorIs(t, err, ErrNoSecret)
}
