package utils_test

import (
	"encoding/hex"
	"strings"
	"testing"

	"vault/utils"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHexKey = "af981abb208cf43ddc03afb57cdd92613677528794c94185236df76d77ad860f"

// TestParseSecp256k1PrivateKey 测试 ParseSecp256k1PrivateKey
func TestParseSecp256k1PrivateKey(t *testing.T) {
	t.Run("Hex 32 bytes", func(t *testing.T) {
		priv, err := utils.ParseSecp256k1PrivateKey(testHexKey)
		require.NoError(t, err)
		assert.Len(t, priv.Serialize(), 32)
	})

	t.Run("WIF roundtrip", func(t *testing.T) {
		priv, err := utils.ParseSecp256k1PrivateKey(testHexKey)
		require.NoError(t, err)
		wif, err := utils.EncodeWIF(priv)
		require.NoError(t, err)

		back, err := utils.ParseSecp256k1PrivateKey(wif)
		require.NoError(t, err)
		assert.Equal(t, priv.Serialize(), back.Serialize())
	})

	t.Run("Invalid input", func(t *testing.T) {
		priv, err := utils.ParseSecp256k1PrivateKey("thisIsNotWIFNorHex")
		assert.Error(t, err)
		assert.Nil(t, priv)
	})

	t.Run("Short hex", func(t *testing.T) {
		_, err := utils.ParseSecp256k1PrivateKey("abcd")
		assert.Error(t, err)
	})
}

// TestDeriveBtcBech32Address 测试身份地址推导
func TestDeriveBtcBech32Address(t *testing.T) {
	raw, _ := hex.DecodeString(testHexKey)
	privKey := secp256k1.PrivKeyFromBytes(raw)

	addr, err := utils.DeriveBtcBech32Address(privKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "bc1q"), addr)
	assert.NoError(t, utils.ValidateIdentity(addr))

	// 同一私钥推导结果稳定
	again, err := utils.DeriveBtcBech32Address(privKey)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestValidateIdentity(t *testing.T) {
	priv, err := utils.GeneratePrivateKey()
	require.NoError(t, err)
	addr, err := utils.DeriveBtcBech32Address(priv)
	require.NoError(t, err)

	assert.NoError(t, utils.ValidateIdentity(addr))
	assert.ErrorIs(t, utils.ValidateIdentity(""), utils.ErrInvalidIdentity)
	assert.ErrorIs(t, utils.ValidateIdentity("not-an-address"), utils.ErrInvalidIdentity)
	// 大写形式虽然能解码，但不是规范编码
	assert.ErrorIs(t, utils.ValidateIdentity(strings.ToUpper(addr)), utils.ErrInvalidIdentity)

	vaultAddr, err := utils.DeriveVaultAddress(addr)
	require.NoError(t, err)
	assert.ErrorIs(t, utils.ValidateIdentity(vaultAddr), utils.ErrInvalidIdentity)
}

func TestKeyManagerSign(t *testing.T) {
	km, err := utils.NewKeyManager(testHexKey)
	require.NoError(t, err)

	payload := []byte("deposit 100")
	sig := km.Sign(payload)
	assert.Len(t, sig, utils.CompactSignatureLen)

	signer, err := utils.RecoverSigner(payload, sig)
	require.NoError(t, err)
	assert.Equal(t, km.GetAddress(), signer)
	assert.True(t, utils.VerifySigner(payload, sig, km.GetAddress()))

	// payload 被篡改后恢复出的是另一个身份
	assert.False(t, utils.VerifySigner([]byte("deposit 101"), sig, km.GetAddress()))

	_, err = utils.RecoverSigner(payload, sig[:10])
	assert.ErrorIs(t, err, utils.ErrInvalidSignature)
}
