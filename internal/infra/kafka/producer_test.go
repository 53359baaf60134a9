package kafka

import (
	"testing"

	"github.com/raetselonkel/labyrinth/internal/infra/config"
)

func TestTopicName(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		event  string
		want   string
	}{
		{name: "prefix applied", prefix: "labyrinth", event: "riddle.solved", want: "labyrinth.riddle.solved"},
		{name: "already prefixed", prefix: "labyrinth", event: "labyrinth.riddle.solved", want: "labyrinth.riddle.solved"},
		{name: "no prefix", prefix: "", event: "riddle.solved", want: "riddle.solved"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &Producer{cfg: config.KafkaSettings{TopicPrefix: tc.prefix}}
			if got := p.TopicName(tc.event); got != tc.want {
				t.Fatalf("TopicName(%q) = %q, want %q", tc.event, got, tc.want)
			}
		})
	}
}
