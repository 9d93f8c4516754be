package models

import (
	"strconv"
	"strings"

	"peerprep/captcha/internal/captcha"
)

// maximum accepted answer length, longer input cannot match any challenge we issue
const MaxAnswerLength = 64

type IssueRequest struct {
	Kind       string `json:"kind"`
	Size       int    `json:"size"`
	Difficulty string `json:"difficulty"`

	kind          captcha.Kind
	difficulty    captcha.Difficulty
	hasDifficulty bool
}

// implements the Validator interface
func (r *IssueRequest) Validate() error {
	kind, err := captcha.ParseKind(r.Kind)
	if err != nil {
		return &ErrorResponse{
			Code:    "invalid_kind",
			Message: "Kind must be one of: expression, string",
		}
	}
	r.kind = kind

	level := strings.TrimSpace(r.Difficulty)
	if level == "" {
		return nil
	}
	// numeric levels are clamped, names must be exact
	if n, err := strconv.Atoi(level); err == nil {
		r.difficulty = captcha.ClampDifficulty(captcha.Difficulty(n))
		r.hasDifficulty = true
		return nil
	}
	d, err := captcha.ParseDifficulty(level)
	if err != nil {
		return &ErrorResponse{
			Code:    "invalid_difficulty",
			Message: "Difficulty must be one of: easy, normal, hard",
		}
	}
	r.difficulty = d
	r.hasDifficulty = true
	return nil
}

// CaptchaKind returns the parsed kind. Only meaningful after Validate.
func (r *IssueRequest) CaptchaKind() captcha.Kind {
	if r.kind == "" {
		return captcha.KindExpression
	}
	return r.kind
}

// CaptchaDifficulty returns the requested level, or fallback when none was given.
func (r *IssueRequest) CaptchaDifficulty(fallback captcha.Difficulty) captcha.Difficulty {
	if !r.hasDifficulty {
		return fallback
	}
	return r.difficulty
}

// CaptchaSize returns the requested size clamped to [MinSize, max], or fallback when zero.
func (r *IssueRequest) CaptchaSize(fallback, max int) int {
	if r.Size == 0 {
		return captcha.ClampSize(fallback, max)
	}
	return captcha.ClampSize(r.Size, max)
}

type VerifyRequest struct {
	Answer string `json:"answer"`
}

func (r *VerifyRequest) Validate() error {
	if strings.TrimSpace(r.Answer) == "" {
		return &ErrorResponse{Code: "missing_answer", Message: "answer is required"}
	}
	if len(r.Answer) > MaxAnswerLength {
		return &ErrorResponse{Code: "answer_too_long", Message: "answer must be at most " + strconv.Itoa(MaxAnswerLength) + " characters"}
	}
	return nil
}

type TokenVerifyRequest struct {
	Token string `json:"token"`
}

func (r *TokenVerifyRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return &ErrorResponse{Code: "missing_token", Message: "token is required"}
	}
	return nil
}
