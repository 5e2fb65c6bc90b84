package model

import (
	"time"
)

// Rule change types recorded in the audit log
const (
	ChangeRuleCreate     = "rule_create"
	ChangeRuleUpdate     = "rule_update"
	ChangeRuleProducts   = "rule_products"
	ChangeRuleCategories = "rule_categories"
	ChangeRuleCopy       = "rule_copy"
	ChangeRuleDelete     = "rule_delete"
)

// RuleChange represents an audit log entry for a rule mutation
type RuleChange struct {
	ID        string    `json:"id"`
	RuleID    uint      `json:"rule_id"`
	RoleSlug  string    `json:"role"`
	Type      string    `json:"type"`
	Before    *Rule     `json:"before,omitempty"`
	After     *Rule     `json:"after,omitempty"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason,omitempty"`
}

// RuleChangeDB is the database model for rule changes
type RuleChangeDB struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	RuleID    uint      `gorm:"not null;index"`
	RoleSlug  string    `gorm:"type:varchar(64);not null;index"`
	Type      string    `gorm:"type:varchar(32);not null;index"`
	Before    *string   `gorm:"type:text"` // JSON document, nullable
	After     *string   `gorm:"type:text"` // JSON document, nullable
	ChangedBy string    `gorm:"type:varchar(100);not null;index"`
	ChangedAt time.Time `gorm:"autoCreateTime;index"`
	Reason    string    `gorm:"type:text"`
}

func (RuleChangeDB) TableName() string {
	return "rule_changes"
}
