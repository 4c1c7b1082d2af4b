// Package progress turns a user's submission log into the derived gamification
// numbers: streaks, per-topic counts, mastery and consistency scores.
//
// Everything here is a pure function of its inputs. There is no stored counter
// to keep in sync: callers recompute from the append-only log on every read,
// so a partial update can never leave a streak out of step with the log.
package progress

import (
	"slices"

	"github.com/sakif/codesync/internal/model"
)

// ComputeStreak derives the streak state for submissions as seen on today.
//
// The streak counts distinct calendar days, not submissions. The current
// streak is alive while the most recent active day is today or yesterday;
// once a full day is missed it drops to 0, but Longest still reports the best
// run in the whole history.
func ComputeStreak(submissions []model.Submission, today model.Date) model.StreakState {
	days := distinctDaysDesc(submissions)
	if len(days) == 0 {
		return model.StreakState{}
	}

	state := model.StreakState{
		LastActive: days[0],
		Longest:    longestRun(days),
	}

	if days[0].Before(today.AddDays(-1)) {
		return state
	}

	state.Current = 1
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[i-1].AddDays(-1)) {
			break
		}
		state.Current++
	}
	return state
}

// distinctDaysDesc collapses submissions to their unique dates, newest first.
func distinctDaysDesc(submissions []model.Submission) []model.Date {
	seen := make(map[string]struct{}, len(submissions))
	days := make([]model.Date, 0, len(submissions))
	for _, s := range submissions {
		if s.OccurredOn.IsZero() {
			continue
		}
		key := s.OccurredOn.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, s.OccurredOn)
	}

	slices.SortFunc(days, func(a, b model.Date) int {
		switch {
		case a.After(b):
			return -1
		case a.Before(b):
			return 1
		}
		return 0
	})
	return days
}

// longestRun returns the length of the longest block of consecutive days.
// days must be distinct and sorted newest first.
func longestRun(days []model.Date) int {
	if len(days) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDays(-1)) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
	}
	return best
}
