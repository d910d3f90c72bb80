package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voice-quiz-service/internal/domain"
)

func TestSummarizeMarksSkippedPositions(t *testing.T) {
	ds := &domain.Dataset{Questions: []domain.Question{
		{Index: 0, Question: "Capital of France?", Answers: []string{"Paris"}},
		{Index: 1, Question: "Capital of Japan?", Answers: []string{"Tokyo"}},
		{Index: 2, Question: "Capital of Italy?", Answers: []string{"Rome"}},
	}}
	history := map[int]RoundResult{
		0: {Correct: true, UserAnswers: []string{"Paris"}},
		2: {Correct: false, UserAnswers: []string{"Milan"}},
	}
	thresholds := []FeedbackThreshold{{Score: 0, Reply: "feedback low"}, {Score: 2, Reply: "feedback mid"}, {Score: 3, Reply: "feedback high"}}

	sum := Summarize(ds, []int{0, 1, 2}, history, thresholds, 1)

	require.Len(t, sum.Results, 3)
	assert.Equal(t, 1, sum.Score)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, []string{SkippedAnswer}, sum.Results[1].UserAnswers)
	assert.False(t, sum.Results[1].Correct)
	assert.Equal(t, []string{"Milan"}, sum.Results[2].UserAnswers)
	assert.Equal(t, []string{"Rome"}, sum.Results[2].CorrectAnswers)
	assert.Equal(t, "feedback mid", sum.Tier)
	assert.False(t, sum.Passed, "passing needs strictly more than numToPass")
}

func TestSummarizeFollowsQueueOrder(t *testing.T) {
	ds := &domain.Dataset{Questions: []domain.Question{
		{Index: 0, Question: "A?", Answers: []string{"a"}},
		{Index: 1, Question: "B?", Answers: []string{"b"}},
	}}
	history := map[int]RoundResult{0: {Correct: true, UserAnswers: []string{"b"}}, 1: {Correct: true, UserAnswers: []string{"a"}}}

	sum := Summarize(ds, []int{1, 0}, history, nil, 1)
	assert.Equal(t, "B?", sum.Results[0].Question)
	assert.Equal(t, 2, sum.Score)
	assert.True(t, sum.Passed)
	assert.Empty(t, sum.Tier)
}
