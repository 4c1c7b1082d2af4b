package model

import (
	"strings"
	"time"
)

// Difficulty is the self-reported difficulty of a solved problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty matches s case-insensitively against the three known
// difficulties and returns the canonical value.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Submission is one solved-problem event in a user's log.
//
// Submissions are immutable once stored. The ID and CreatedAt are assigned by
// the repository on append; everything else is validated input.
type Submission struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	ProblemName string     `json:"problemName"`
	Topic       string     `json:"topic"`
	Difficulty  Difficulty `json:"difficulty"`
	OccurredOn  Date       `json:"date"`
	Notes       string     `json:"notes"`
	Code        string     `json:"code"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NormalizeTopic returns the case-insensitive key for a topic label.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
