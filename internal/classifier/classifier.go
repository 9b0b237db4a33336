// Package classifier assigns operational categories to validated animal rows
// through an external prediction capability. Classification is best-effort:
// any failure leaves the row unclassified and ingestion continues.
package classifier

import (
	"context"
	"errors"

	"herdsnap/internal/census"
)

// ErrNoCategory is returned by a Classifier that ran but produced no label.
var ErrNoCategory = errors.New("classifier: no category")

// Classifier maps a feature vector to a category code.
type Classifier interface {
	Classify(ctx context.Context, features census.Features) (int, error)
}

// Func adapts a plain function to the Classifier interface.
type Func func(ctx context.Context, features census.Features) (int, error)

// Classify calls f.
func (f Func) Classify(ctx context.Context, features census.Features) (int, error) {
	return f(ctx, features)
}
