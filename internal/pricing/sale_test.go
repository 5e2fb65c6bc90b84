package pricing

import (
	"testing"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSaleActive(t *testing.T) {
	sale := func(from, to, timeFrom, timeTo string) *model.StorewideSale {
		return &model.StorewideSale{
			Adjustment: adj(model.KindPercent, "20"),
			DateFrom:   from,
			DateTo:     to,
			TimeFrom:   timeFrom,
			TimeTo:     timeTo,
		}
	}
	at := func(day, hour, minute int) time.Time {
		return time.Date(2026, 11, day, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		sale *model.StorewideSale
		now  time.Time
		want bool
	}{
		{"nil sale", nil, at(28, 12, 0), false},
		{"inside dates", sale("2026-11-27", "2026-11-30", "", ""), at(28, 12, 0), true},
		{"first day inclusive", sale("2026-11-27", "2026-11-30", "", ""), at(27, 0, 0), true},
		{"last day inclusive", sale("2026-11-27", "2026-11-30", "", ""), at(30, 23, 59), true},
		{"before start", sale("2026-11-27", "2026-11-30", "", ""), at(26, 23, 59), false},
		{"missing end date", sale("2026-11-27", "", "", ""), at(28, 12, 0), false},
		{"unparseable date", sale("27/11/2026", "2026-11-30", "", ""), at(28, 12, 0), false},
		{"inside daily hours", sale("2026-11-27", "2026-11-30", "08:00", "20:00"), at(28, 8, 0), true},
		{"before daily hours", sale("2026-11-27", "2026-11-30", "08:00", "20:00"), at(28, 7, 59), false},
		{"after daily hours", sale("2026-11-27", "2026-11-30", "08:00", "20:00"), at(28, 20, 1), false},
		{"only start time", sale("2026-11-27", "2026-11-30", "18:00", ""), at(28, 23, 0), true},
		{"only end time", sale("2026-11-27", "2026-11-30", "", "09:00"), at(28, 9, 1), false},
		{"overnight late evening", sale("2026-11-27", "2026-11-30", "22:00", "02:00"), at(28, 23, 0), true},
		{"overnight after midnight", sale("2026-11-27", "2026-11-30", "22:00", "02:00"), at(29, 1, 0), true},
		{"overnight end inclusive", sale("2026-11-27", "2026-11-30", "22:00", "02:00"), at(29, 2, 0), true},
		{"overnight midday", sale("2026-11-27", "2026-11-30", "22:00", "02:00"), at(28, 12, 0), false},
		{"overnight after last day", sale("2026-11-27", "2026-11-30", "22:00", "02:00"), at(31, 1, 0), false},
		{
			name: "no value",
			sale: &model.StorewideSale{Adjustment: model.Adjustment{Kind: model.KindPercent}, DateFrom: "2026-11-27", DateTo: "2026-11-30"},
			now:  at(28, 12, 0),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SaleActive(tt.sale, tt.now))
		})
	}
}

func TestEvaluateQuantityBreak(t *testing.T) {
	qb := model.QuantityBreak{MinQty: 5, Adjustment: adj(model.KindPercent, "20")}

	_, ok := EvaluateQuantityBreak(qb, 4)
	assert.False(t, ok)

	got, ok := EvaluateQuantityBreak(qb, 5)
	assert.True(t, ok)
	assert.Equal(t, model.KindPercent, got.Kind)

	_, ok = EvaluateQuantityBreak(model.QuantityBreak{MinQty: 0, Adjustment: adj(model.KindPercent, "20")}, 100)
	assert.False(t, ok, "zero minimum means no break")

	_, ok = EvaluateQuantityBreak(model.QuantityBreak{MinQty: 2, Adjustment: model.NewAdjustment(model.KindFixed, "")}, 3)
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	tests := []struct {
		kind  model.AdjustmentKind
		value string
		base  string
		want  string
	}{
		{model.KindPercent, "10", "100", "90"},
		{model.KindPercent, "12.5", "80", "70"},
		{model.KindPercentAdd, "10", "100", "110"},
		{model.KindFixed, "15", "100", "85"},
		{model.KindFixed, "150", "100", "-50"},
		{model.KindFixedAdd, "2.5", "10", "12.5"},
		{model.KindFixedSet, "42", "100", "42"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"_"+tt.value, func(t *testing.T) {
			got, ok := Apply(adj(tt.kind, tt.value), d(tt.base))
			assert.True(t, ok)
			assert.True(t, got.Equal(d(tt.want)), "got %s", got)
		})
	}

	got, ok := Apply(model.Adjustment{Kind: model.KindFixed}, d("100"))
	assert.False(t, ok)
	assert.True(t, got.Equal(d("100")))
}
