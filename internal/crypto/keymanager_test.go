package crypto

import (
	"os"
	"path/filepath"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// TestEncryptDecryptRoundTrip checks an encrypted key decrypts back to the
// same hex under the right password.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

// TestDecryptWrongPassword checks a wrong password fails instead of yielding
// garbage.
func TestDecryptWrongPassword(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	_, err = DecryptKey(blob, "hunter3")
	assert.Error(t, err)
}

// TestEncryptKeyRejectsBadInput covers the input guards.
func TestEncryptKeyRejectsBadInput(t *testing.T) {
	_, err := EncryptKey(testKeyHex, "")
	assert.Error(t, err)

	_, err = EncryptKey("not-hex", "hunter2")
	assert.Error(t, err)

	_, err = EncryptKey("abcd", "hunter2")
	assert.Error(t, err)
}

// TestLoadSignerKeyRawHex checks the raw key path, with and without the 0x
// prefix.
func TestLoadSignerKeyRawHex(t *testing.T) {
	want, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	for _, raw := range []string{testKeyHex, "0x" + testKeyHex} {
		key, err := LoadSignerKey(KeyConfig{RawPrivateKey: raw})
		require.NoError(t, err)
		assert.Equal(t, want.D, key.D)
	}
}

// TestLoadSignerKeyEncryptedFile checks the key-file path end to end.
func TestLoadSignerKeyEncryptedFile(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "signer.key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	key, err := LoadSignerKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "hunter2"})
	require.NoError(t, err)

	want, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, want.D, key.D)
}

// TestLoadSignerKeyNoSource checks the empty configuration fails.
func TestLoadSignerKeyNoSource(t *testing.T) {
	_, err := LoadSignerKey(KeyConfig{})
	assert.Error(t, err)
}
