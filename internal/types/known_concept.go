package types

import "time"

// KnownConcept marks one graph node as mastered by one user.
type KnownConcept struct {
	UserID    string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	NodeID    string    `gorm:"column:node_id;primaryKey" json:"node_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Kind      string    `gorm:"column:kind;not null" json:"kind"`
	AddedAt   time.Time `gorm:"column:added_at;not null" json:"added_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (KnownConcept) TableName() string { return "known_concept" }

type LearnerProfile struct {
	UserID    string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (LearnerProfile) TableName() string { return "learner_profile" }
