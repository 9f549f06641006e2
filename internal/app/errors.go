package app

import "errors"

var (
	// ErrInvalidRequest is a caller error: a required field is missing or
	// empty. Raised before any side effect.
	ErrInvalidRequest = errors.New("session id and message are required")

	// ErrEmbeddingUnavailable means the embedding provider could not be
	// reached; retryable per request.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrClassificationUnavailable means the intent classifier call failed;
	// the orchestrator degrades to the general path.
	ErrClassificationUnavailable = errors.New("intent classification unavailable")

	// ErrRetrievalUnavailable means the index is empty or the query failed;
	// the orchestrator degrades to an empty candidate list.
	ErrRetrievalUnavailable = errors.New("dataset retrieval unavailable")

	// ErrCompositionFailed means the composition LLM call failed; the
	// request aborts without writing an assistant turn.
	ErrCompositionFailed = errors.New("response composition failed")
)
