package models

import (
	"time"

	"gorm.io/gorm"
)

// ErrorLog is a diagnostic record of a non-fatal failure.
type ErrorLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Source    string         `gorm:"not null;index;default:''" json:"source"` // "sampler", "capture", "relay", "power"
	ErrorMsg  string         `gorm:"not null" json:"error_msg"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ErrorCount is the number of errors per source.
type ErrorCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}
