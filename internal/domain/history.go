package domain

import "sort"

// DefaultPassingPct is the ratio used when callers don't pass a threshold.
const DefaultPassingPct = 1.0

// QuestionRecord tracks lifetime exposure to one question. CorrectCount <= SeenCount.
type QuestionRecord struct {
	QuestionNumber int `json:"questionNumber"`
	SeenCount      int `json:"seenCount"`
	CorrectCount   int `json:"correctCount"`
}

// Ratio is CorrectCount/SeenCount, zero for unseen questions.
func (r QuestionRecord) Ratio() float64 {
	if r.SeenCount == 0 {
		return 0
	}
	return float64(r.CorrectCount) / float64(r.SeenCount)
}

// History is a user's persisted record of seen and answered questions.
type History struct {
	Records map[int]*QuestionRecord `json:"history"`
	LastUse int64                   `json:"lastUse,omitempty"`
}

// NewHistory returns a history with a zeroed record for every question index.
func NewHistory(numQuestions int) *History {
	h := &History{Records: make(map[int]*QuestionRecord, numQuestions)}
	h.EnsureQuestions(numQuestions)
	return h
}

// EnsureQuestions adds zeroed records for indices 0..n-1 that are missing.
func (h *History) EnsureQuestions(n int) {
	if h.Records == nil {
		h.Records = make(map[int]*QuestionRecord, n)
	}
	for i := 0; i < n; i++ {
		if _, ok := h.Records[i]; !ok {
			h.Records[i] = &QuestionRecord{QuestionNumber: i}
		}
	}
}

// Record returns the record for a question, or nil if it isn't tracked.
func (h *History) Record(questionNumber int) *QuestionRecord {
	if h == nil || h.Records == nil {
		return nil
	}
	return h.Records[questionNumber]
}

// Unseen returns tracked questions that were never seen.
func (h *History) Unseen() []int {
	return h.filter(func(r *QuestionRecord) bool { return r.SeenCount == 0 })
}

// Seen returns questions seen at least once.
func (h *History) Seen() []int {
	return h.filter(func(r *QuestionRecord) bool { return r.SeenCount > 0 })
}

// Correct returns seen questions answered correctly at least passingPct of the time.
func (h *History) Correct(passingPct float64) []int {
	return h.filter(func(r *QuestionRecord) bool {
		return r.SeenCount > 0 && r.CorrectCount > 0 && r.Ratio() >= passingPct
	})
}

// Wrong returns seen questions answered correctly less than passingPct of the time.
func (h *History) Wrong(passingPct float64) []int {
	return h.filter(func(r *QuestionRecord) bool {
		return r.SeenCount > 0 && r.Ratio() < passingPct
	})
}

// LogQuestion records one resolution of a question. Callers must invoke it exactly once
// per resolved question; calling it twice double counts.
func (h *History) LogQuestion(questionNumber int, correct bool) {
	if h.Records == nil {
		h.Records = make(map[int]*QuestionRecord)
	}
	rec, ok := h.Records[questionNumber]
	if !ok {
		rec = &QuestionRecord{QuestionNumber: questionNumber}
		h.Records[questionNumber] = rec
	}
	rec.SeenCount++
	if correct {
		rec.CorrectCount++
	}
}

// SetLastUsed stores the last use time in unix milliseconds.
func (h *History) SetLastUsed(ms int64) {
	h.LastUse = ms
}

// LastUsed returns the last use time in unix milliseconds, zero if never used.
func (h *History) LastUsed() int64 {
	if h == nil {
		return 0
	}
	return h.LastUse
}

func (h *History) filter(keep func(*QuestionRecord) bool) []int {
	if h == nil {
		return nil
	}
	out := make([]int, 0, len(h.Records))
	for num, rec := range h.Records {
		if rec != nil && keep(rec) {
			out = append(out, num)
		}
	}
	sort.Ints(out)
	return out
}
