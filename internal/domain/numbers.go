package domain

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ParsePrice разбирает цену как десятичное число без потери точности.
// NaN и бесконечности не принимаются.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "price %q", s)
	}
	return d, nil
}

// ParseQuantity разбирает целое в десятичной записи: "010" это 10, а не 8.
// Нулевая дробная часть ("5.0") допускается.
func ParseQuantity(s string) (int64, error) {
	s = trimZeroFraction(strings.TrimSpace(s))
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "quantity %q", s)
	}
	return n, nil
}

// trimZeroFraction срезает дробную часть из одних нулей: "5.0" -> "5".
func trimZeroFraction(s string) string {
	i := strings.IndexByte(s, '.')
	if i <= 0 || strings.Trim(s[i+1:], "0") != "" {
		return s
	}
	return s[:i]
}
