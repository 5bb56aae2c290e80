package service

import (
	"context"

	"SigPipe/internal/domain/models"
)

// Classifier maps a fixed-order feature vector to a win probability in
// [0,1]. The model itself is opaque; training happens elsewhere.
type Classifier interface {
	Predict(ctx context.Context, symbol string, features models.FeatureVector) (float64, error)
}
