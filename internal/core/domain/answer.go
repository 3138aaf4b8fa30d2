package domain

import "time"

// Canned responses returned instead of a model answer.
const (
	// NotFoundAnswer is returned when retrieval yields no relevant context.
	NotFoundAnswer = "The manual does not contain information about this question."

	// FallbackAnswer is returned when the answerer fails for any reason.
	FallbackAnswer = "An error occurred while generating the answer. " +
		"Please consult a certified technician for an expert inspection."
)

// AnswerOutcome records how an answer was produced.
type AnswerOutcome string

// Answer outcomes.
const (
	// OutcomeAnswered means the language model produced the answer.
	OutcomeAnswered AnswerOutcome = "answered"

	// OutcomeNotFound means no context was found and NotFoundAnswer was used.
	OutcomeNotFound AnswerOutcome = "not_found"

	// OutcomeFallback means the answerer failed and FallbackAnswer was used.
	OutcomeFallback AnswerOutcome = "fallback"
)

// Answer is the response to a question.
type Answer struct {
	// Question is the question as asked.
	Question string

	// Text is the answer shown to the user.
	Text string

	// Outcome records how Text was produced.
	Outcome AnswerOutcome

	// Retrieval is the context used, nil when retrieval was not attempted.
	Retrieval *Retrieval
}

// QueryRecord is a persisted question/answer pair.
type QueryRecord struct {
	// ID is the row identifier.
	ID int64

	// Question is the question text.
	Question string

	// Scope is the scope searched.
	Scope string

	// Answer is the text returned to the user.
	Answer string

	// Outcome records how the answer was produced.
	Outcome AnswerOutcome

	// ContextChunks is the number of chunks in the context.
	ContextChunks int

	// Duration is how long answering took.
	Duration time.Duration

	// AskedAt is when the question was asked.
	AskedAt time.Time
}

// IngestOptions configures one ingest run.
type IngestOptions struct {
	// ChunkSize is the maximum tokens per chunk. Zero uses the configured default.
	ChunkSize int

	// Progress is called once per page during extraction. Optional.
	Progress ProgressFunc
}

// IngestResult summarises one ingested document.
type IngestResult struct {
	// Collection is the collection the document was written to.
	Collection Collection

	// Pages is the total page count.
	Pages int

	// OCRPages is the number of pages recognised by OCR.
	OCRPages int

	// Chunks is the number of chunks written.
	Chunks int

	// Duplicate is true when identical content was already ingested
	// and nothing was written.
	Duplicate bool
}

// IngestRecord is a persisted log entry for one ingest attempt.
type IngestRecord struct {
	// CollectionID is the target collection.
	CollectionID string

	// Name is the document name.
	Name string

	// ContentHash is the document's identity hash.
	ContentHash string

	// Pages is the total page count.
	Pages int

	// OCRPages is the number of pages recognised by OCR.
	OCRPages int

	// Chunks is the number of chunks written.
	Chunks int

	// Duplicate is true when the ingest was skipped as a duplicate.
	Duplicate bool

	// IngestedAt is when the ingest finished.
	IngestedAt time.Time
}
