package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"Draft a resolution on water", true},
		{"write me an opening statement", true},
		{"  GENERATE three clauses", true},
		{"Create: a position paper", true},
		{"compose a closing remark", true},
		{"Speech for the first session", true},
		{"Give me ideas for amendments", true},
		{"give me ideas", true},
		{"What is the agenda?", false},
		{"Can you draft a resolution?", false},
		{"Writers of the charter", false},
		{"Give me the facts", false},
		{"", false},
	}
	c := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			require.Equal(t, tt.want, c.IsCreative(context.Background(), tt.query))
		})
	}
}

func TestModelClassifier(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
		query  string
		want   bool
	}{
		{"creative label", "Creative.", nil, "What is the agenda?", true},
		{"factual label", "factual", nil, "Draft a speech", false},
		{"unparsable falls back", "maybe", nil, "Draft a speech", true},
		{"error falls back", "", errors.New("down"), "What is the agenda?", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &recordingGenerator{answer: tt.answer, err: tt.err}
			c := NewIntentClassifier(IntentModeModel, gen, time.Second)
			require.Equal(t, tt.want, c.IsCreative(context.Background(), tt.query))
			require.Len(t, gen.prompts, 1)
			require.Contains(t, gen.prompts[0], tt.query)
		})
	}
}

func TestNewIntentClassifierDefaultsToKeyword(t *testing.T) {
	require.IsType(t, KeywordClassifier{}, NewIntentClassifier(IntentModeKeyword, &recordingGenerator{}, 0))
	require.IsType(t, KeywordClassifier{}, NewIntentClassifier(IntentModeModel, nil, 0))
	require.IsType(t, KeywordClassifier{}, NewIntentClassifier("", nil, 0))
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestModelClassifierTimeout(t *testing.T) {
	c := NewIntentClassifier(IntentModeModel, blockingGenerator{}, 20*time.Millisecond)
	start := time.Now()
	require.True(t, c.IsCreative(context.Background(), "Write a speech on water"))
	require.False(t, c.IsCreative(context.Background(), "What is the agenda?"))
	require.Less(t, time.Since(start), 2*time.Second)
}
