package postgres

import (
	"time"

	"convert-gateway/vars"
)

// Conversion is one accepted upload and the outcome of its conversion.
type Conversion struct {
	// ID is the per-request staging id, not an auto-increment key.
	ID           string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	OriginalName string `gorm:"column:original_name;type:varchar(255);not null" json:"original_name"`
	StoredName   string `gorm:"column:stored_name;type:varchar(255);not null" json:"stored_name"`
	Extension    string `gorm:"column:extension;type:varchar(16);index" json:"extension"`
	SizeBytes    int64  `gorm:"column:size_bytes" json:"size_bytes"`
	Status       string `gorm:"column:status;type:varchar(16);default:pending;index" json:"status"`
	ErrorKind    string `gorm:"column:error_kind;type:varchar(16)" json:"error_kind,omitempty"`
	ErrorDetail  string `gorm:"column:error_detail;type:text" json:"-"`
	Backend      string `gorm:"column:backend;type:varchar(32)" json:"backend"`
	OutputDir    string `gorm:"column:output_dir;type:text" json:"-"`
	DurationMS   int64  `gorm:"column:duration_ms" json:"duration_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Conversion) TableName() string {
	return "conversions"
}

func (c *Conversion) IsFinished() bool {
	return c.Status == vars.StatusSucceeded || c.Status == vars.StatusFailed
}
