package types

import (
	"time"

	"github.com/google/uuid"
)

// UnknownQuery is a user message the graph could not resolve to any
// concept. Rows feed later graph-expansion passes.
type UnknownQuery struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Query     string    `gorm:"column:query;not null" json:"query"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
	Processed bool      `gorm:"column:processed;not null;default:false" json:"processed"`
}

func (UnknownQuery) TableName() string { return "unknown_query" }
