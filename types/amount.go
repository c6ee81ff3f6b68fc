// Package types provides common types used across alloc.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is an unsigned integer quantity in a token's smallest unit.
// All arithmetic is integer-only and arbitrary width, so sums of uint256
// token amounts never overflow.
//
// The zero value is 0 and ready to use. Amount values are immutable:
// every operation returns a new value.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for Unmarshal/Scan.
type Amount struct {
	v *big.Int
}

// NewAmount creates an Amount from a uint64.
func NewAmount(u uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(u)}
}

// AmountFromBig creates an Amount from a big.Int. Returns an error for
// negative values. The argument is copied.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Amount{}, nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount: negative value %s", b.String())
	}
	return Amount{v: new(big.Int).Set(b)}, nil
}

// ParseAmount parses a base-10 string.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("amount: parse %q: empty string", s)
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: parse %q: not a base-10 integer", s)
	}
	return AmountFromBig(b)
}

// MustAmount is like ParseAmount but panics on error. Use for hardcoded values.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Units returns whole * 10^decimals, e.g. Units(25, 6) is 25 tokens of a
// 6-decimals token.
func Units(whole uint64, decimals uint8) Amount {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return Amount{v: scale.Mul(scale, new(big.Int).SetUint64(whole))}
}

func (a Amount) int() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying value.
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.int())
}

// Uint64 returns the value as a uint64 and whether it fit.
func (a Amount) Uint64() (uint64, bool) {
	b := a.int()
	if !b.IsUint64() {
		return 0, false
	}
	return b.Uint64(), true
}

// Arithmetic operations

// Add returns a + other.
func (a Amount) Add(other Amount) Amount {
	return Amount{v: new(big.Int).Add(a.int(), other.int())}
}

// Sub returns a - other. Panics if the result would be negative.
func (a Amount) Sub(other Amount) Amount {
	if a.LessThan(other) {
		panic(fmt.Sprintf("amount: underflow: %s - %s", a, other))
	}
	return Amount{v: new(big.Int).Sub(a.int(), other.int())}
}

// Mul returns a * n.
func (a Amount) Mul(n uint64) Amount {
	return Amount{v: new(big.Int).Mul(a.int(), new(big.Int).SetUint64(n))}
}

// Comparison methods

// Cmp compares a and other and returns -1, 0 or +1.
func (a Amount) Cmp(other Amount) int { return a.int().Cmp(other.int()) }

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.int().Sign() == 0 }

// Equal returns true if both amounts are equal.
func (a Amount) Equal(other Amount) bool { return a.Cmp(other) == 0 }

// LessThan returns true if a < other.
func (a Amount) LessThan(other Amount) bool { return a.Cmp(other) < 0 }

// GreaterThan returns true if a > other.
func (a Amount) GreaterThan(other Amount) bool { return a.Cmp(other) > 0 }

// Formatting methods

// String returns the base-10 representation in base units.
func (a Amount) String() string { return a.int().String() }

// FormatUnits renders the amount in whole token units using the token's
// decimals, e.g. "25.000000" for 25000000 with 6 decimals.
func (a Amount) FormatUnits(decimals uint8) string {
	if decimals == 0 {
		return a.String()
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(a.int(), scale, new(big.Int))

	digits := frac.String()
	if pad := int(decimals) - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return whole.String() + "." + digits
}

// Encoding

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = Amount{}
		return nil
	}
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a decimal string so that values above
// 2^53 survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("amount: unmarshal %s: %w", string(data), err)
		}
		s = n.String()
	}
	return a.UnmarshalText([]byte(s))
}

// Value implements driver.Valuer. Amounts are stored as decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("amount: cannot scan negative %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T into Amount", src)
	}
}

// Sum calculates the sum of multiple amounts.
func Sum(values ...Amount) Amount {
	result := Amount{}
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
