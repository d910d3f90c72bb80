package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a conversation has no stored session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrHistoryNotFound is returned by history stores for users without a record.
	ErrHistoryNotFound = errors.New("user history not found")
	// ErrDatasetNotFound indicates the quiz content could not be loaded.
	ErrDatasetNotFound = errors.New("quiz dataset not found")
	// ErrInvalidDataset wraps content problems found while loading a dataset.
	ErrInvalidDataset = errors.New("invalid quiz dataset")
	// ErrNoQuestions indicates a dataset or ordering config that yields an empty queue.
	ErrNoQuestions = errors.New("no questions available")
	// ErrEmptyChoices is a reply-building failure: a choice list with no items.
	ErrEmptyChoices = errors.New("choice list has no items")
	// ErrMissingConversation indicates a turn without a conversation id.
	ErrMissingConversation = errors.New("missing conversation id")
)
