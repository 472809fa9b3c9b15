package interfaces

import (
	"context"

	"github.com/ternarybob/scribo/internal/models"
)

// FragmentStore is the read boundary over the content store that holds
// pre-embedded source fragments. It has no side effects; transport failures
// surface wrapped in models.ErrStoreUnavailable and are not retried here.
type FragmentStore interface {
	// ListKeys returns every fragment key in the pool.
	ListKeys(ctx context.Context) ([]int64, error)

	// GetByKey fetches a single fragment. Returns an error wrapping
	// models.ErrFragmentNotFound when the key does not exist.
	GetByKey(ctx context.Context, key int64) (*models.Fragment, error)

	// Count reports the pool size.
	Count(ctx context.Context) (int, error)
}
