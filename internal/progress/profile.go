package progress

import "github.com/sakif/codesync/internal/model"

// BuildProfile assembles the read model for user from their submission log.
// It is pure: the same inputs always give the same profile.
func BuildProfile(user model.User, submissions []model.Submission, today model.Date) model.UserProfile {
	streak := ComputeStreak(submissions, today)
	return model.UserProfile{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Streak:           streak,
		Topics:           AggregateTopics(submissions),
		TotalSolved:      len(submissions),
		ConsistencyScore: ConsistencyScore(streak.Current),
	}
}

// Summarize reduces a profile to its peer directory row.
func Summarize(p model.UserProfile) model.PeerSummary {
	return model.PeerSummary{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Streak:      p.Streak.Current,
		TotalSolved: p.TotalSolved,
		LastActive:  p.Streak.LastActive,
	}
}
