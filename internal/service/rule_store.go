package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RuleStore persists one versioned rule document per role.
// There is no partial update: callers read, modify and save the whole rule.
type RuleStore interface {
	// GetRule returns the rule of roleSlug, or nil when the role has none
	GetRule(ctx context.Context, roleSlug string) (*model.Rule, error)
	GetRuleByID(ctx context.Context, id uint) (*model.Rule, error)
	ListRules(ctx context.Context) ([]*model.Rule, error)
	// SaveRule inserts a rule with ID 0, otherwise it updates the stored
	// rule only if its version still matches rule.Version
	SaveRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id uint) error
	DeleteRuleForRole(ctx context.Context, roleSlug string) error
	// WithTx returns a store that runs inside tx
	WithTx(tx *gorm.DB) RuleStore
}

// GormRuleStore keeps rules in the pricing_rules table
type GormRuleStore struct {
	db *gorm.DB
}

// NewGormRuleStore creates a new database-backed rule store
func NewGormRuleStore(db *gorm.DB) *GormRuleStore {
	return &GormRuleStore{db: db}
}

func (s *GormRuleStore) WithTx(tx *gorm.DB) RuleStore {
	return &GormRuleStore{db: tx}
}

func ruleFromRecord(rec *model.RuleRecord) (*model.Rule, error) {
	var rule model.Rule
	if err := json.Unmarshal(rec.Document, &rule); err != nil {
		return nil, fmt.Errorf("failed to decode rule %d: %w", rec.ID, err)
	}
	// the row is authoritative for identity and version
	rule.ID = rec.ID
	rule.RoleSlug = rec.RoleSlug
	rule.Version = rec.Version
	return &rule, nil
}

func encodeRule(rule *model.Rule) (datatypes.JSON, error) {
	data, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule: %w", err)
	}
	return datatypes.JSON(data), nil
}

func (s *GormRuleStore) GetRule(ctx context.Context, roleSlug string) (*model.Rule, error) {
	var rec model.RuleRecord
	err := s.db.WithContext(ctx).Where("role_slug = ?", roleSlug).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rule for role %s: %w", roleSlug, err)
	}
	return ruleFromRecord(&rec)
}

func (s *GormRuleStore) GetRuleByID(ctx context.Context, id uint) (*model.Rule, error) {
	var rec model.RuleRecord
	err := s.db.WithContext(ctx).First(&rec, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrRuleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get rule %d: %w", id, err)
	}
	return ruleFromRecord(&rec)
}

func (s *GormRuleStore) ListRules(ctx context.Context) ([]*model.Rule, error) {
	var recs []model.RuleRecord
	if err := s.db.WithContext(ctx).Order("role_slug").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	rules := make([]*model.Rule, 0, len(recs))
	for i := range recs {
		rule, err := ruleFromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s *GormRuleStore) SaveRule(ctx context.Context, rule *model.Rule) error {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == 0 {
		return s.insert(ctx, rule)
	}
	return s.update(ctx, rule)
}

func (s *GormRuleStore) insert(ctx context.Context, rule *model.Rule) error {
	created := *rule
	created.Version = 1

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.RuleRecord{}).Where("role_slug = ?", rule.RoleSlug).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check existing rule: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrRuleExists, rule.RoleSlug)
		}

		rec := &model.RuleRecord{RoleSlug: rule.RoleSlug, Version: 1, Document: datatypes.JSON("{}")}
		if err := tx.Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrRuleExists, rule.RoleSlug)
			}
			return fmt.Errorf("failed to create rule: %w", err)
		}

		// the document embeds the id, which is only known after the insert
		created.ID = rec.ID
		doc, err := encodeRule(&created)
		if err != nil {
			return err
		}
		if err := tx.Model(rec).Update("document", doc).Error; err != nil {
			return fmt.Errorf("failed to store rule document: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	rule.ID = created.ID
	rule.Version = created.Version
	return nil
}

func (s *GormRuleStore) update(ctx context.Context, rule *model.Rule) error {
	expected := rule.Version
	next := *rule
	next.Version = expected + 1

	doc, err := encodeRule(&next)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&model.RuleRecord{}).
		Where("id = ? AND version = ?", rule.ID, expected).
		Updates(map[string]interface{}{
			"role_slug": rule.RoleSlug,
			"document":  doc,
			"version":   gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrRuleExists, rule.RoleSlug)
		}
		return fmt.Errorf("failed to update rule %d: %w", rule.ID, result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.RuleRecord{}).Where("id = ?", rule.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check rule %d: %w", rule.ID, err)
		}
		if count == 0 {
			return fmt.Errorf("%w: %d", ErrRuleNotFound, rule.ID)
		}
		return fmt.Errorf("%w: rule %d is no longer at version %d", ErrVersionConflict, rule.ID, expected)
	}

	rule.Version = next.Version
	return nil
}

func (s *GormRuleStore) DeleteRule(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.RuleRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrRuleNotFound, id)
	}
	return nil
}

func (s *GormRuleStore) DeleteRuleForRole(ctx context.Context, roleSlug string) error {
	if err := s.db.WithContext(ctx).Where("role_slug = ?", roleSlug).Delete(&model.RuleRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete rule for role %s: %w", roleSlug, err)
	}
	return nil
}
