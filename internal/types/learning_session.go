package types

import (
	"time"

	"gorm.io/datatypes"
)

// CompletedTopic records one finished path step with its completion time.
type CompletedTopic struct {
	Topic       string    `json:"topic"`
	CompletedAt time.Time `json:"completed_at"`
}

type LearningSession struct {
	UserID           string                               `gorm:"column:user_id;primaryKey" json:"user_id"`
	CurrentPath      datatypes.JSONSlice[string]          `gorm:"column:current_path;type:jsonb" json:"current_path"`
	CurrentStepIndex int                                  `gorm:"column:current_step_index;not null;default:0" json:"current_step_index"`
	CompletedTopics  datatypes.JSONSlice[CompletedTopic]  `gorm:"column:completed_topics;type:jsonb" json:"completed_topics"`
	TargetTopic      *string                              `gorm:"column:target_topic" json:"target_topic,omitempty"`
	SessionStartedAt time.Time                            `gorm:"column:session_started_at;not null" json:"session_started_at"`
	LastUpdatedAt    time.Time                            `gorm:"column:last_updated_at;not null" json:"last_updated_at"`
}

func (LearningSession) TableName() string { return "learning_session" }

// CurrentStep returns the active path step, or "" when the path is
// empty or already walked past its end.
func (s *LearningSession) CurrentStep() string {
	if s.CurrentStepIndex < 0 || s.CurrentStepIndex >= len(s.CurrentPath) {
		return ""
	}
	return s.CurrentPath[s.CurrentStepIndex]
}

// PathExhausted reports whether every step of the current path has
// been completed. An empty path is not considered exhausted.
func (s *LearningSession) PathExhausted() bool {
	return len(s.CurrentPath) > 0 && s.CurrentStepIndex >= len(s.CurrentPath)
}
