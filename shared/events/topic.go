package events

import (
	"errors"
	"strings"
)

var ErrInvalidTopic = errors.New("invalid topic")

// Topic is a dotted event type. As a pattern, "*" stands for exactly one segment and a
// leading or trailing "#" turns the pattern into a suffix, prefix or substring match.
type Topic string

func NewTopic(topic string) (Topic, error) {
	if strings.TrimSpace(topic) == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

func (t Topic) String() string {
	return string(t)
}

// Matches reports whether t satisfies pattern
func (t Topic) Matches(pattern Topic) bool {
	p := string(pattern)
	topic := string(t)

	if p == "#" {
		return true
	}

	leading, trailing := strings.HasPrefix(p, "#"), strings.HasSuffix(p, "#")
	core := strings.TrimSuffix(strings.TrimPrefix(p, "#"), "#")
	switch {
	case leading && trailing:
		return strings.Contains(topic, core)
	case leading:
		return strings.HasSuffix(topic, core)
	case trailing:
		return strings.HasPrefix(topic, core)
	}

	want := strings.Split(p, ".")
	got := strings.Split(topic, ".")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}
