package models

import "time"

// uniform error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// lets Validate() return an ErrorResponse directly
func (e *ErrorResponse) Error() string {
	return e.Code + ": " + e.Message
}

// returned by POST /challenges; the answer never leaves the service
type ChallengeResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Size       int       `json:"size"`
	Difficulty string    `json:"difficulty"`
	Image      string    `json:"image"` // data URI
	ExpiresAt  time.Time `json:"expires_at"`
}

type VerifyResponse struct {
	Success   bool       `json:"success"`
	PassToken string     `json:"pass_token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type TokenVerifyResponse struct {
	Valid       bool   `json:"valid"`
	ChallengeID string `json:"challenge_id,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// one row per kind/difficulty pair
type AttemptStat struct {
	Kind       string `json:"kind"`
	Difficulty string `json:"difficulty"`
	Total      int64  `json:"total"`
	Passed     int64  `json:"passed"`
}

type StatsResponse struct {
	Since  time.Time     `json:"since"`
	Total  int64         `json:"total"`
	Passed int64         `json:"passed"`
	Groups []AttemptStat `json:"groups"`
}
