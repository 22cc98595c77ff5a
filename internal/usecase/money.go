package usecase

import (
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in minor currency units. JSON renders major units with
// two decimals.
type Money int64

func MoneyFromMajor(v float64) Money {
	return Money(math.Round(v * 100))
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = MoneyFromMajor(v)
	return nil
}
