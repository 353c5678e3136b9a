package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeAdd(t *testing.T) {
	v, err := SafeAdd(1, 2)
	assert.NoError(t, err)
	assert.Equal(t, uint64(3), v)

	v, err = SafeAdd(math.MaxUint64, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, err = SafeAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestSafeSub(t *testing.T) {
	v, err := SafeSub(5, 5)
	assert.NoError(t, err)
	assert.Zero(t, v)

	_, err = SafeSub(0, 1)
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestErrorKindMatching(t *testing.T) {
	err := newError(KindVaultLocked, "vault %s", "x")
	assert.ErrorIs(t, err, ErrVaultLocked)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, KindVaultLocked, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(ErrOverflow))
	assert.Equal(t, ErrorKind(""), KindOf(nil))

	wrapped := wrapError(KindOverflow, ErrOverflow, "credit")
	assert.ErrorIs(t, wrapped, ErrOverflow)
	assert.ErrorIs(t, wrapped, ErrAmountOverflow)
	assert.Contains(t, wrapped.Error(), "Overflow: credit")
}
