package app

import "voice-quiz-service/internal/domain"

// SkippedAnswer replaces user answers for queue positions that were never resolved.
const SkippedAnswer = "(Question skipped)"

// FeedbackThreshold maps a maximum score to a feedback phrase key. Lists are ascending.
type FeedbackThreshold struct {
	Score int    `yaml:"score" json:"score"`
	Reply string `yaml:"reply" json:"reply"`
}

// QuestionResult is one line of the end-of-quiz summary.
type QuestionResult struct {
	Question       string   `json:"question"`
	Correct        bool     `json:"correct"`
	CorrectAnswers []string `json:"correctAnswers"`
	UserAnswers    []string `json:"userAnswers"`
}

// Summary is the end-of-quiz report.
type Summary struct {
	Results []QuestionResult `json:"results"`
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Tier    string           `json:"tier,omitempty"`
	Passed  bool             `json:"passed"`
}

// Summarize reports every queue position. The score is re-derived from the round history
// rather than taken from the running counter.
func Summarize(ds *domain.Dataset, queue []int, roundHistory map[int]RoundResult, thresholds []FeedbackThreshold, numToPass int) Summary {
	sum := Summary{Results: make([]QuestionResult, 0, len(queue)), Total: len(queue)}
	for pos, qn := range queue {
		q, _ := ds.Question(qn)
		res := QuestionResult{Question: q.Question, CorrectAnswers: q.Answers}
		if r, ok := roundHistory[pos]; ok {
			res.UserAnswers = r.UserAnswers
			if r.Correct {
				res.Correct = true
				sum.Score++
			}
		} else {
			res.UserAnswers = []string{SkippedAnswer}
		}
		sum.Results = append(sum.Results, res)
	}
	for _, th := range thresholds {
		if sum.Score <= th.Score {
			sum.Tier = th.Reply
			break
		}
	}
	sum.Passed = sum.Score > numToPass
	return sum
}
