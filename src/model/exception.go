package model

import "time"

// Exception is a persisted failure from the dispatch path, kept for auditing.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Service string `gorm:"size:100;index" json:"service"` // e.g. "dispatcher"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "routing"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "GetExecutionTargets"

	UserID   *int64 `gorm:"index" json:"user_id,omitempty"`
	Strategy string `gorm:"size:40" json:"strategy,omitempty"`

	Message string `gorm:"type:text" json:"message"`
	Stack   string `gorm:"type:text" json:"stack"`
	Level   string `gorm:"size:20;index" json:"level"`

	// JSON encoded extra fields
	Context string `gorm:"type:text" json:"context,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
