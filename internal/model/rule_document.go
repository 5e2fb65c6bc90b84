package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Toggle is a boolean stored as "on"/"off"
type Toggle bool

func (t Toggle) MarshalJSON() ([]byte, error) {
	if t {
		return []byte(`"on"`), nil
	}
	return []byte(`"off"`), nil
}

func (t *Toggle) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = Toggle(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("toggle must be a string or boolean: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "true", "1":
		*t = true
	case "off", "no", "false", "0", "":
		*t = false
	default:
		return fmt.Errorf("invalid toggle value %q", s)
	}
	return nil
}

// FlexInt accepts both JSON numbers and numeric strings
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*n = FlexInt(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = FlexInt(v)
	return nil
}

type productRuleJSON struct {
	ID             FlexInt        `json:"id"`
	Name           string         `json:"name"`
	AdjustType     AdjustmentKind `json:"adjust_type"`
	AdjustValue    string         `json:"adjust_value"`
	AdjustTypeQty  AdjustmentKind `json:"adjust_type_qty"`
	AdjustValueQty string         `json:"adjust_value_qty"`
	MinQty         FlexInt        `json:"min_qty"`
	Hidden         Toggle         `json:"hidden"`
}

func (p ProductRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(productRuleJSON{
		ID:             FlexInt(p.ProductID),
		Name:           p.Name,
		AdjustType:     p.Adjustment.Kind,
		AdjustValue:    formatAmount(p.Adjustment.Value),
		AdjustTypeQty:  p.QuantityBreak.Adjustment.Kind,
		AdjustValueQty: formatAmount(p.QuantityBreak.Adjustment.Value),
		MinQty:         FlexInt(p.QuantityBreak.MinQty),
		Hidden:         Toggle(p.Hidden),
	})
}

func (p *ProductRule) UnmarshalJSON(data []byte) error {
	var raw productRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("product rule: %w", err)
	}
	*p = ProductRule{
		ProductID:  int64(raw.ID),
		Name:       raw.Name,
		Adjustment: NewAdjustment(raw.AdjustType, raw.AdjustValue),
		QuantityBreak: QuantityBreak{
			MinQty:     int(raw.MinQty),
			Adjustment: NewAdjustment(raw.AdjustTypeQty, raw.AdjustValueQty),
		},
		Hidden: bool(raw.Hidden),
	}
	return nil
}

type categoryRuleJSON struct {
	ID             FlexInt        `json:"id"`
	Slug           string         `json:"slug"`
	Name           string         `json:"name"`
	AdjustType     AdjustmentKind `json:"adjust_type"`
	AdjustValue    string         `json:"adjust_value"`
	AdjustTypeQty  AdjustmentKind `json:"adjust_type_qty"`
	AdjustValueQty string         `json:"adjust_value_qty"`
	MinQty         FlexInt        `json:"min_qty"`
	Hidden         Toggle         `json:"hidden"`
	OnSale         Toggle         `json:"on_sale"`
}

func (c CategoryRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryRuleJSON{
		ID:             FlexInt(c.CategoryID),
		Slug:           c.Slug,
		Name:           c.Name,
		AdjustType:     c.Adjustment.Kind,
		AdjustValue:    formatAmount(c.Adjustment.Value),
		AdjustTypeQty:  c.QuantityBreak.Adjustment.Kind,
		AdjustValueQty: formatAmount(c.QuantityBreak.Adjustment.Value),
		MinQty:         FlexInt(c.QuantityBreak.MinQty),
		Hidden:         Toggle(c.Hidden),
		OnSale:         Toggle(c.OnSale),
	})
}

func (c *CategoryRule) UnmarshalJSON(data []byte) error {
	var raw categoryRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("category rule: %w", err)
	}
	*c = CategoryRule{
		CategoryID: int64(raw.ID),
		Slug:       raw.Slug,
		Name:       raw.Name,
		Adjustment: NewAdjustment(raw.AdjustType, raw.AdjustValue),
		QuantityBreak: QuantityBreak{
			MinQty:     int(raw.MinQty),
			Adjustment: NewAdjustment(raw.AdjustTypeQty, raw.AdjustValueQty),
		},
		Hidden: bool(raw.Hidden),
		OnSale: bool(raw.OnSale),
	}
	return nil
}

// ruleDocument is the persisted layout of a Rule
type ruleDocument struct {
	ID                    uint                `json:"id"`
	Role                  string              `json:"role"`
	Version               int                 `json:"version"`
	RuleActive            Toggle              `json:"rule_active"`
	ReduceRegularType     AdjustmentKind      `json:"reduce_regular_type"`
	ReduceRegularValue    string              `json:"reduce_regular_value"`
	ReduceCategoriesType  *AdjustmentKind     `json:"reduce_categories_type"`
	ReduceCategoriesValue string              `json:"reduce_categories_value"`
	Categories            []map[string]string `json:"categories"`
	CategoriesOnSale      Toggle              `json:"categories_on_sale"`
	SingleCategories      []CategoryRule      `json:"single_categories"`
	Products              []ProductRule       `json:"products"`
	ReduceSaleType        AdjustmentKind      `json:"reduce_sale_type"`
	ReduceSaleValue       string              `json:"reduce_sale_value"`
	DateFrom              string              `json:"date_from"`
	DateTo                string              `json:"date_to"`
	TimeFrom              string              `json:"time_from"`
	TimeTo                string              `json:"time_to"`
	Coupon                string              `json:"coupon"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	categoriesType := r.GeneralCategoryAdjustment.Kind
	doc := ruleDocument{
		ID:                    r.ID,
		Role:                  r.RoleSlug,
		Version:               r.Version,
		RuleActive:            Toggle(r.Active),
		ReduceRegularType:     r.GlobalAdjustment.Kind,
		ReduceRegularValue:    formatAmount(r.GlobalAdjustment.Value),
		ReduceCategoriesType:  &categoriesType,
		ReduceCategoriesValue: formatAmount(r.GeneralCategoryAdjustment.Value),
		Categories:            make([]map[string]string, 0, len(r.GeneralCategories)),
		CategoriesOnSale:      Toggle(r.CategoriesOnSale),
		SingleCategories:      r.CategoryRules,
		Products:              r.ProductRules,
		Coupon:                r.Coupon,
	}
	for _, id := range r.GeneralCategories {
		key := strconv.FormatInt(id, 10)
		doc.Categories = append(doc.Categories, map[string]string{key: key})
	}
	if doc.SingleCategories == nil {
		doc.SingleCategories = []CategoryRule{}
	}
	if doc.Products == nil {
		doc.Products = []ProductRule{}
	}
	if s := r.StorewideSale; !s.IsZero() {
		doc.ReduceSaleType = s.Adjustment.Kind
		doc.ReduceSaleValue = formatAmount(s.Adjustment.Value)
		doc.DateFrom = s.DateFrom
		doc.DateTo = s.DateTo
		doc.TimeFrom = s.TimeFrom
		doc.TimeTo = s.TimeTo
	}
	return json.Marshal(doc)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var doc ruleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode rule document: %w", err)
	}

	rule := Rule{
		ID:               doc.ID,
		RoleSlug:         doc.Role,
		Version:          doc.Version,
		Active:           bool(doc.RuleActive),
		GlobalAdjustment: NewAdjustment(doc.ReduceRegularType, doc.ReduceRegularValue),
		CategoriesOnSale: bool(doc.CategoriesOnSale),
		Coupon:           doc.Coupon,
	}

	categoriesType := KindNone
	if doc.ReduceCategoriesType != nil {
		categoriesType = *doc.ReduceCategoriesType
	} else if strings.TrimSpace(doc.ReduceCategoriesValue) != "" {
		// older documents carried only a value, which was always a percentage
		categoriesType = KindPercent
	}
	rule.GeneralCategoryAdjustment = NewAdjustment(categoriesType, doc.ReduceCategoriesValue)

	for _, entry := range doc.Categories {
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
			if err != nil {
				continue
			}
			rule.GeneralCategories = append(rule.GeneralCategories, id)
		}
	}

	if len(doc.SingleCategories) > 0 {
		rule.CategoryRules = doc.SingleCategories
	}
	if len(doc.Products) > 0 {
		rule.ProductRules = doc.Products
	}

	if doc.ReduceSaleType != KindNone || strings.TrimSpace(doc.ReduceSaleValue) != "" ||
		doc.DateFrom != "" || doc.DateTo != "" || doc.TimeFrom != "" || doc.TimeTo != "" {
		rule.StorewideSale = &StorewideSale{
			Adjustment: NewAdjustment(doc.ReduceSaleType, doc.ReduceSaleValue),
			DateFrom:   doc.DateFrom,
			DateTo:     doc.DateTo,
			TimeFrom:   doc.TimeFrom,
			TimeTo:     doc.TimeTo,
		}
	}

	*r = rule
	return nil
}
