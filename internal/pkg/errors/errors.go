package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrTooMany  = errors.New("too many requests")
	ErrInternal = errors.New("internal")
)

// Ingestion failures. Each one is fatal for the source being processed.
var (
	ErrAcquisition           = errors.New("acquisition failed")
	ErrEmptyContent          = errors.New("source content is empty")
	ErrUnsupportedSourceType = errors.New("unsupported source type")
	ErrEmbedding             = errors.New("embedding failed")
	ErrIndexWrite            = errors.New("index write failed")
)

// Query path failures.
var (
	ErrIndexNotFound         = errors.New("index not found")
	ErrKnowledgeBaseNotFound = errors.New("knowledge base not found")
	ErrLLMCall               = errors.New("llm call failed")
)

func IsIndexNotFound(err error) bool {
	return errors.Is(err, ErrIndexNotFound)
}
