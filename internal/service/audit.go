package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records every mutation of a pricing rule
type AuditLog interface {
	LogRuleChange(ctx context.Context, change model.RuleChange) error
	GetRuleHistory(ctx context.Context, ruleID uint, limit int) ([]model.RuleChange, error)
}

// GormAuditLog stores rule changes in the rule_changes table
type GormAuditLog struct {
	db *gorm.DB
}

// NewGormAuditLog creates a new database-backed audit log
func NewGormAuditLog(db *gorm.DB) *GormAuditLog {
	return &GormAuditLog{db: db}
}

func encodeSnapshot(rule *model.Rule) (*string, error) {
	if rule == nil {
		return nil, nil
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func decodeSnapshot(s *string) (*model.Rule, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var rule model.Rule
	if err := json.Unmarshal([]byte(*s), &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (l *GormAuditLog) changeToDB(change model.RuleChange) (*model.RuleChangeDB, error) {
	before, err := encodeSnapshot(change.Before)
	if err != nil {
		return nil, fmt.Errorf("failed to encode previous rule: %w", err)
	}
	after, err := encodeSnapshot(change.After)
	if err != nil {
		return nil, fmt.Errorf("failed to encode new rule: %w", err)
	}

	return &model.RuleChangeDB{
		ID:        change.ID,
		RuleID:    change.RuleID,
		RoleSlug:  change.RoleSlug,
		Type:      change.Type,
		Before:    before,
		After:     after,
		ChangedBy: change.ChangedBy,
		ChangedAt: change.ChangedAt,
		Reason:    change.Reason,
	}, nil
}

func (l *GormAuditLog) changeFromDB(row model.RuleChangeDB) (model.RuleChange, error) {
	before, err := decodeSnapshot(row.Before)
	if err != nil {
		return model.RuleChange{}, fmt.Errorf("failed to decode previous rule: %w", err)
	}
	after, err := decodeSnapshot(row.After)
	if err != nil {
		return model.RuleChange{}, fmt.Errorf("failed to decode new rule: %w", err)
	}

	return model.RuleChange{
		ID:        row.ID,
		RuleID:    row.RuleID,
		RoleSlug:  row.RoleSlug,
		Type:      row.Type,
		Before:    before,
		After:     after,
		ChangedBy: row.ChangedBy,
		ChangedAt: row.ChangedAt,
		Reason:    row.Reason,
	}, nil
}

func (l *GormAuditLog) LogRuleChange(ctx context.Context, change model.RuleChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if change.ChangedAt.IsZero() {
		change.ChangedAt = time.Now()
	}
	if change.ChangedBy == "" {
		change.ChangedBy = "system"
	}

	row, err := l.changeToDB(change)
	if err != nil {
		return fmt.Errorf("failed to convert rule change for database: %w", err)
	}

	if err := l.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to log rule change to database: %w", err)
	}
	return nil
}

// GetRuleHistory returns the newest changes of a rule first. A limit of
// zero returns every entry.
func (l *GormAuditLog) GetRuleHistory(ctx context.Context, ruleID uint, limit int) ([]model.RuleChange, error) {
	query := l.db.WithContext(ctx).
		Model(&model.RuleChangeDB{}).
		Where("rule_id = ?", ruleID).
		Order("changed_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.RuleChangeDB
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get rule history: %w", err)
	}

	changes := make([]model.RuleChange, len(rows))
	for i, row := range rows {
		change, err := l.changeFromDB(row)
		if err != nil {
			return nil, fmt.Errorf("failed to convert rule change from database: %w", err)
		}
		changes[i] = change
	}
	return changes, nil
}
