package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AdjustmentKind is the closed set of price transforms a rule can apply
type AdjustmentKind string

const (
	KindNone       AdjustmentKind = ""
	KindPercent    AdjustmentKind = "percent"
	KindPercentAdd AdjustmentKind = "percent_add"
	KindFixed      AdjustmentKind = "fixed"
	KindFixedAdd   AdjustmentKind = "fixed_add"
	KindFixedSet   AdjustmentKind = "fixed_set"
)

// SupportedKinds lists every kind accepted when decoding a rule document
var SupportedKinds = []AdjustmentKind{
	KindPercent,
	KindPercentAdd,
	KindFixed,
	KindFixedAdd,
	KindFixedSet,
}

// ParseAdjustmentKind converts a stored type string into a kind.
// Unknown strings are rejected instead of being treated as a no-op.
func ParseAdjustmentKind(s string) (AdjustmentKind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return KindNone, nil
	}
	for _, k := range SupportedKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("unknown adjustment type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *AdjustmentKind) UnmarshalText(text []byte) error {
	parsed, err := ParseAdjustmentKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Adjustment describes how to transform a price.
// A missing value means the adjustment is skipped, it is never read as zero.
type Adjustment struct {
	Kind  AdjustmentKind      `json:"type"`
	Value decimal.NullDecimal `json:"value"`
}

// NewAdjustment builds an adjustment from a kind and a numeric string
func NewAdjustment(kind AdjustmentKind, value string) Adjustment {
	return Adjustment{Kind: kind, Value: parseAmount(value)}
}

// Present reports whether the adjustment would change a price
func (a Adjustment) Present() bool {
	return a.Kind != KindNone && a.Value.Valid
}

// IsZero reports whether neither a kind nor a value is set
func (a Adjustment) IsZero() bool {
	return a.Kind == KindNone && !a.Value.Valid
}

// parseAmount reads a stored numeric string. Blank and unparseable input
// both come back invalid so the caller treats the adjustment as absent.
func parseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	// amounts entered in a Danish locale use a decimal comma
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return canonicalAmount(decimal.NewNullDecimal(d))
}

// canonicalAmount strips trailing zeros so "12.50" and "12.5" hold the
// same coefficient and exponent, matching what formatAmount writes back.
func canonicalAmount(v decimal.NullDecimal) decimal.NullDecimal {
	if !v.Valid {
		return v
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(v.Decimal.String()))
}

// normalized returns the adjustment with its amount in canonical form
func (a Adjustment) normalized() Adjustment {
	a.Value = canonicalAmount(a.Value)
	return a
}

func formatAmount(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
