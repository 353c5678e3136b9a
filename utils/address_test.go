package utils_test

import (
	"strings"
	"testing"

	"vault/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity(t *testing.T) string {
	t.Helper()
	priv, err := utils.GeneratePrivateKey()
	require.NoError(t, err)
	addr, err := utils.DeriveBtcBech32Address(priv)
	require.NoError(t, err)
	return addr
}

func TestDeriveVaultAddressDeterministic(t *testing.T) {
	authority := newIdentity(t)

	a1, err := utils.DeriveVaultAddress(authority)
	require.NoError(t, err)
	a2, err := utils.DeriveVaultAddress(authority)
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.True(t, strings.HasPrefix(a1, "vault1"), a1)
	assert.True(t, utils.NewAddressDeriver("").IsVaultAddress(a1))
	assert.False(t, utils.NewAddressDeriver("").IsVaultAddress(authority))
}

func TestDeriveVaultAddressDistinct(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 64; i++ {
		authority := newIdentity(t)
		addr, err := utils.DeriveVaultAddress(authority)
		require.NoError(t, err)
		if prev, ok := seen[addr]; ok {
			t.Fatalf("collision: %s and %s -> %s", prev, authority, addr)
		}
		seen[addr] = authority
	}
}

func TestDeriveVaultAddressNamespace(t *testing.T) {
	authority := newIdentity(t)

	a, err := utils.NewAddressDeriver("vault").Derive(authority)
	require.NoError(t, err)
	b, err := utils.NewAddressDeriver("escrow").Derive(authority)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(b, "escrow1"))
	assert.False(t, utils.NewAddressDeriver("vault").IsVaultAddress(b))
}

func TestDeriveVaultAddressRejectsInvalidAuthority(t *testing.T) {
	_, err := utils.DeriveVaultAddress("bogus")
	assert.ErrorIs(t, err, utils.ErrInvalidIdentity)
}
