package model

import (
	"time"

	"gorm.io/datatypes"
)

// RuleRecord is the stored row of a rule: one versioned JSON document
// per role
type RuleRecord struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"`
	RoleSlug  string         `gorm:"type:varchar(64);uniqueIndex;not null"`
	Version   int            `gorm:"not null;default:1"`
	Document  datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (RuleRecord) TableName() string {
	return "pricing_rules"
}
