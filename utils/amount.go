package utils

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmountString = errors.New("invalid amount")

var maxUint64Dec = decimal.NewFromUint64(math.MaxUint64)

// ParseAmount 把展示单位（如 "1.5"）换算成基础单位
// 小数位超过 decimals 或结果超出 uint64 都会报错，不做截断
func ParseAmount(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidAmountString, s)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative %s", ErrInvalidAmountString, s)
	}
	units := d.Shift(decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than %d decimals in %s", ErrInvalidAmountString, decimals, s)
	}
	if units.GreaterThan(maxUint64Dec) {
		return 0, fmt.Errorf("%w: %s exceeds max", ErrInvalidAmountString, s)
	}
	return units.BigInt().Uint64(), nil
}

// FormatAmount 基础单位 → 展示字符串（去掉多余的尾零）
func FormatAmount(units uint64, decimals int32) string {
	return decimal.NewFromUint64(units).Shift(-decimals).String()
}
