package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/etherbay/goapi/domain"
)

const etherDecimals = 18

// FormatWei renders a wei amount as an ether string for display,
// trailing zeros trimmed
func FormatWei(wei string) (string, error) {
	if _, err := domain.ParseWei(wei); err != nil {
		return "", err
	}
	d, err := decimal.NewFromString(wei)
	if err != nil {
		return "", domain.ErrInvalidNumberFormat
	}
	return d.Shift(-etherDecimals).String(), nil
}
