package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StreakState is derived from a user's submission log, never stored.
type StreakState struct {
	Current    int  `json:"current"`
	Longest    int  `json:"longest"`
	LastActive Date `json:"lastActive"`
}

// TopicCount is the number of submissions recorded under one topic.
type TopicCount struct {
	Topic string
	Count int
}

// TopicProgress is the per-topic solved count, in order of each topic's first
// appearance in the log.
//
// WHY A SLICE AND NOT map[string]int?
// Go maps have no iteration order and encoding/json sorts map keys. Keeping a
// slice lets the dashboard show topics in the order the user started them,
// while MarshalJSON still produces the {"topic": count} object clients expect.
type TopicProgress []TopicCount

// Count returns the count for topic, or 0 if it was never seen.
func (tp TopicProgress) Count(topic string) int {
	key := NormalizeTopic(topic)
	for _, tc := range tp {
		if tc.Topic == key {
			return tc.Count
		}
	}
	return 0
}

// Map returns the counts as a plain map. Order is lost.
func (tp TopicProgress) Map() map[string]int {
	m := make(map[string]int, len(tp))
	for _, tc := range tp {
		m[tc.Topic] = tc.Count
	}
	return m
}

// MarshalJSON writes an object whose keys keep the slice order.
// An empty (or nil) TopicProgress is written as {} so clients never see null.
func (tp TopicProgress) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range tp {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Topic)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of topic counts, keeping key order.
func (tp *TopicProgress) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*tp = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("model: topics must be a JSON object")
	}

	out := TopicProgress{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("model: topic %q: %w", key, err)
		}
		out = append(out, TopicCount{Topic: key, Count: count})
	}
	*tp = out
	return nil
}

// UserProfile is the complete read model the presentation layer consumes.
// It is rebuilt from identity and the submission log on every read.
type UserProfile struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Email            string        `json:"email"`
	Streak           StreakState   `json:"streak"`
	Topics           TopicProgress `json:"topics"`
	TotalSolved      int           `json:"totalSolved"`
	ConsistencyScore int           `json:"consistencyScore"`
}

// PeerSummary is one row of the peer directory.
type PeerSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Streak      int    `json:"streak"`
	TotalSolved int    `json:"totalSolved"`
	LastActive  Date   `json:"lastActive"`
}
