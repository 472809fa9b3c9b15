package models

import (
	"context"
	"errors"
)

// Sentinel errors for the generation pipeline. Stages wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with errors.Is.
var (
	// ErrStoreUnavailable indicates a transport failure reading the content
	// or durable store. Fatal to the run; not retried internally.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoContentAvailable indicates the fragment pool is empty.
	ErrNoContentAvailable = errors.New("no content available")

	// ErrLowQualityPool indicates the selector exhausted its bounded retries
	// without finding a fragment above the minimum content threshold.
	ErrLowQualityPool = errors.New("no fragment above quality threshold")

	// ErrGenerationService indicates a transport or parse failure talking to
	// the text generation service.
	ErrGenerationService = errors.New("generation service error")

	// ErrIncompleteGeneration indicates the generation service responded but
	// one of title/content/summary was empty or blank.
	ErrIncompleteGeneration = errors.New("incomplete generation")

	// ErrPublishFailed indicates the durable article write failed. The
	// source fragment is not marked consumed on this path.
	ErrPublishFailed = errors.New("publish failed")

	// ErrAlreadyConsumed indicates the fragment key was already marked
	// consumed in this cycle, i.e. a concurrent run won the check-and-mark.
	ErrAlreadyConsumed = errors.New("fragment already consumed")

	// ErrFragmentNotFound indicates the requested fragment key does not
	// exist in the content store.
	ErrFragmentNotFound = errors.New("fragment not found")

	// ErrArticleNotFound indicates the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")
)

// Failure reason strings surfaced on GenerateResult for the API layer.
const (
	ReasonStoreUnavailable     = "store_unavailable"
	ReasonNoContentAvailable   = "no_content_available"
	ReasonLowQualityPool       = "low_quality_pool"
	ReasonGenerationService    = "generation_service_error"
	ReasonIncompleteGeneration = "incomplete_generation"
	ReasonPublishFailure       = "publish_failure"
	ReasonAlreadyConsumed      = "fragment_already_consumed"
	ReasonCancelled            = "cancelled"
	ReasonInternal             = "internal_error"
)

// FailureReason classifies a pipeline error into its API-visible reason
// string.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoContentAvailable):
		return ReasonNoContentAvailable
	case errors.Is(err, ErrLowQualityPool):
		return ReasonLowQualityPool
	case errors.Is(err, ErrIncompleteGeneration):
		return ReasonIncompleteGeneration
	case errors.Is(err, ErrGenerationService):
		return ReasonGenerationService
	case errors.Is(err, ErrPublishFailed):
		return ReasonPublishFailure
	case errors.Is(err, ErrAlreadyConsumed):
		return ReasonAlreadyConsumed
	case errors.Is(err, ErrStoreUnavailable):
		return ReasonStoreUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	default:
		return ReasonInternal
	}
}
