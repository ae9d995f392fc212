package types

import (
	"fmt"
	"strconv"
)

// Cents is an amount in the smallest currency unit. It is rendered in JSON
// as a decimal number of currency units (5155 -> 51.55).
type Cents int64

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cents) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) > 1 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if f < 0 {
		*c = Cents(f*100 - 0.5)
		return nil
	}
	*c = Cents(f*100 + 0.5)
	return nil
}
