package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

var ErrUnsupportedValue = errors.New("recipient value must be a string or a number")

// EmailKeys are the recipient fields recognized as the destination address,
// in lookup order.
var EmailKeys = []string{"hr_email", "email"}

type ValueKind uint8

const (
	ValueKindString ValueKind = iota + 1
	ValueKindNumber
)

// Value is a scalar recipient field: either a string or a number.
type Value struct {
	kind ValueKind
	str  string
	num  float64
}

func StringValue(s string) Value {
	return Value{kind: ValueKindString, str: s}
}

func NumberValue(f float64) Value {
	return Value{kind: ValueKindNumber, num: f}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) String() string {
	switch v.kind {
	case ValueKindNumber:
		return formatNumber(v.num)
	default:
		return v.str
	}
}

// formatNumber prints plain decimals, switching to exponent notation
// (1e+21, 1.5e-7) for magnitudes outside [1e-6, 1e21).
func formatNumber(f float64) string {
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok || len(exp) < 2 {
		return s
	}

	// Go pads the exponent to two digits
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == ValueKindNumber {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return ErrUnsupportedValue
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 'n':
		*v = StringValue("")
	case 't', 'f':
		var bl bool
		if err := json.Unmarshal(b, &bl); err != nil {
			return err
		}
		*v = StringValue(strconv.FormatBool(bl))
	case '{', '[':
		return ErrUnsupportedValue
	default:
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return err
		}
		*v = NumberValue(f)
	}

	return nil
}

// Recipient is one row of campaign data. Field names keep their case.
type Recipient map[string]Value

// Lookup finds key by exact match first, then case-insensitively. When
// several keys differ only by case the lexically smallest one wins so the
// result does not depend on map iteration order.
func (r Recipient) Lookup(key string) (Value, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}

	var matches []string
	for k := range r {
		if strings.EqualFold(k, key) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return Value{}, false
	}
	sort.Strings(matches)

	return r[matches[0]], true
}

// Email returns the destination address of the recipient, if any.
func (r Recipient) Email() (string, bool) {
	for _, key := range EmailKeys {
		if v, ok := r.Lookup(key); ok {
			if email := strings.TrimSpace(v.String()); email != "" {
				return email, true
			}
		}
	}
	return "", false
}

func (r Recipient) Clone() Recipient {
	c := make(Recipient, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// NewRecipient builds a recipient from loosely typed values such as decoded
// JSON or spreadsheet cells.
func NewRecipient(m map[string]interface{}) (Recipient, error) {
	r := make(Recipient, len(m))
	for k, raw := range m {
		switch v := raw.(type) {
		case nil:
			r[k] = StringValue("")
		case string:
			r[k] = StringValue(v)
		case float64:
			r[k] = NumberValue(v)
		case float32:
			r[k] = NumberValue(float64(v))
		case int:
			r[k] = NumberValue(float64(v))
		case int64:
			r[k] = NumberValue(float64(v))
		case uint64:
			r[k] = NumberValue(float64(v))
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return nil, err
			}
			r[k] = NumberValue(f)
		case bool:
			r[k] = StringValue(strconv.FormatBool(v))
		default:
			return nil, fmt.Errorf("field %q: %w", k, ErrUnsupportedValue)
		}
	}
	return r, nil
}
