package models

import (
	"time"

	"gorm.io/gorm"
)

// outcome of a verification attempt
const (
	ReasonPassed      = "passed"
	ReasonWrongAnswer = "wrong_answer"
	ReasonExpired     = "expired"
	ReasonCorrupt     = "corrupt_challenge"
)

// Attempt logs one call to the verify endpoint.
// Neither the challenge text nor the submitted answer is stored.
type Attempt struct {
	gorm.Model
	ChallengeID string    `gorm:"index;not null" json:"challenge_id"`
	Kind        string    `gorm:"index" json:"kind"`
	Difficulty  string    `json:"difficulty"`
	Size        int       `json:"size"`
	Success     bool      `gorm:"not null" json:"success"`
	Reason      string    `gorm:"not null" json:"reason"`
	AttemptedAt time.Time `gorm:"not null;index" json:"attempted_at"`
}
