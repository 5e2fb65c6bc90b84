package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Rule)
		field   string
		wantErr bool
	}{
		{
			name:   "full rule is valid",
			mutate: func(r *Rule) {},
		},
		{
			name:    "missing role",
			mutate:  func(r *Rule) { r.RoleSlug = "" },
			field:   "role",
			wantErr: true,
		},
		{
			name:    "fixed_set on global adjustment",
			mutate:  func(r *Rule) { r.GlobalAdjustment = adj(KindFixedSet, "10") },
			field:   "reduce_regular",
			wantErr: true,
		},
		{
			name:    "fixed_set on general category adjustment",
			mutate:  func(r *Rule) { r.GeneralCategoryAdjustment = adj(KindFixedSet, "10") },
			field:   "reduce_categories",
			wantErr: true,
		},
		{
			name:   "fixed_set on product rule",
			mutate: func(r *Rule) { r.ProductRules[0].Adjustment = adj(KindFixedSet, "10") },
		},
		{
			name:    "value without type",
			mutate:  func(r *Rule) { r.ProductRules[1].Adjustment.Kind = KindNone },
			field:   "products[1]",
			wantErr: true,
		},
		{
			name:    "negative min qty",
			mutate:  func(r *Rule) { r.CategoryRules[0].QuantityBreak.MinQty = -1 },
			field:   "single_categories[0]",
			wantErr: true,
		},
		{
			name:    "missing category id",
			mutate:  func(r *Rule) { r.CategoryRules[1].CategoryID = 0 },
			field:   "single_categories[1]",
			wantErr: true,
		},
		{
			name:    "percent_add on storewide sale",
			mutate:  func(r *Rule) { r.StorewideSale.Adjustment = adj(KindPercentAdd, "5") },
			field:   "reduce_sale_type",
			wantErr: true,
		},
		{
			name:    "sale ends before it starts",
			mutate:  func(r *Rule) { r.StorewideSale.DateTo = "2026-11-01" },
			field:   "date_to",
			wantErr: true,
		},
		{
			name: "sale hours run past midnight",
			mutate: func(r *Rule) {
				r.StorewideSale.TimeFrom = "22:00"
				r.StorewideSale.TimeTo = "02:00"
			},
		},
		{
			name:    "malformed sale time",
			mutate:  func(r *Rule) { r.StorewideSale.TimeFrom = "8am" },
			field:   "time_from",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := fullRule()
			tt.mutate(rule)

			err := rule.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRuleHides(t *testing.T) {
	rule := fullRule()

	assert.True(t, rule.Hides(102, nil), "hidden product rule")
	assert.False(t, rule.Hides(101, nil))
	assert.True(t, rule.Hides(500, []int64{3, 15}), "hidden category rule")
	assert.False(t, rule.Hides(500, []int64{12}))

	rule.Active = false
	assert.False(t, rule.Hides(102, nil), "inactive rules hide nothing")

	var none *Rule
	assert.False(t, none.Hides(102, nil))
}

func TestRuleClone(t *testing.T) {
	rule := fullRule()
	clone := rule.Clone()

	clone.ProductRules[0].Name = "changed"
	clone.GeneralCategories[0] = 99
	clone.StorewideSale.DateTo = "2027-01-01"

	assert.Equal(t, "Drill", rule.ProductRules[0].Name)
	assert.Equal(t, int64(12), rule.GeneralCategories[0])
	assert.Equal(t, "2026-11-30", rule.StorewideSale.DateTo)
}

func TestParseAdjustmentKind(t *testing.T) {
	for _, k := range SupportedKinds {
		got, err := ParseAdjustmentKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseAdjustmentKind("  ")
	require.NoError(t, err)
	assert.Equal(t, KindNone, got)

	_, err = ParseAdjustmentKind("percentage")
	assert.Error(t, err)
}
