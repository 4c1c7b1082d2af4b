package progress

import "github.com/sakif/codesync/internal/model"

const (
	// masteryPerSolve is how many mastery points one solved problem is worth.
	masteryPerSolve = 10
	// consistencyPerDay is how many consistency points one streak day is worth.
	consistencyPerDay = 5
	// scoreCap is the ceiling of both saturating scores.
	scoreCap = 100
)

// AggregateTopics counts submissions per topic. Topic keys are
// case-insensitive and appear in order of first occurrence.
// An empty log yields an empty, non-nil TopicProgress.
func AggregateTopics(submissions []model.Submission) model.TopicProgress {
	out := model.TopicProgress{}
	index := make(map[string]int)
	for _, s := range submissions {
		key := model.NormalizeTopic(s.Topic)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			out[i].Count++
			continue
		}
		index[key] = len(out)
		out = append(out, model.TopicCount{Topic: key, Count: 1})
	}
	return out
}

// MasteryPercent maps a topic's solved count onto [0, 100].
// Ten solves saturate the scale.
func MasteryPercent(count int) int {
	return saturate(count * masteryPerSolve)
}

// Mastery returns the mastery percentage of every topic in tp, keeping order.
// The result reuses TopicProgress for its ordered JSON form, so each Count
// is a percentage in [0, 100], not a number of solves.
func Mastery(tp model.TopicProgress) model.TopicProgress {
	out := make(model.TopicProgress, len(tp))
	for i, tc := range tp {
		out[i] = model.TopicCount{Topic: tc.Topic, Count: MasteryPercent(tc.Count)}
	}
	return out
}

// ConsistencyScore maps the current streak onto [0, 100].
// A twenty-day streak saturates the scale.
func ConsistencyScore(currentStreak int) int {
	return saturate(currentStreak * consistencyPerDay)
}

func saturate(v int) int {
	return min(scoreCap, max(0, v))
}
