package classifier

import (
	"context"
	"fmt"
	"time"

	"SigPipe/internal/domain/models"
	domsvc "SigPipe/internal/domain/service"
	"SigPipe/pkg/config"
	xhttp "SigPipe/pkg/http"
)

// HTTPClassifier calls the external model service over HTTP. The model is
// opaque here; only the probability comes back.
type HTTPClassifier struct {
	baseURL  string
	client   *xhttp.Client
	attempts int
}

func NewHTTPClassifier(cfg *config.Config) *HTTPClassifier {
	timeout := cfg.Classifier.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	attempts := cfg.Classifier.Retries
	if attempts <= 0 {
		attempts = 1
	}
	return &HTTPClassifier{
		baseURL:  cfg.Classifier.ServiceURL,
		client:   xhttp.NewClient(xhttp.WithTimeout(timeout)),
		attempts: attempts,
	}
}

type predictReq struct {
	Symbol   string               `json:"symbol"`
	Features models.FeatureVector `json:"features"`
}

type predictResp struct {
	Probability    float64 `json:"probability"`
	Recommendation string  `json:"recommendation"`
}

// Predict posts the feature vector and returns the win probability.
func (c *HTTPClassifier) Predict(ctx context.Context, symbol string, features models.FeatureVector) (float64, error) {
	if c.client == nil || c.baseURL == "" {
		return 0, fmt.Errorf("classifier http client not initialized")
	}

	var pr predictResp
	var err error
	for i := 1; i <= c.attempts; i++ {
		err = c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.baseURL + "/predict",
			Headers: map[string]string{
				"Content-Type": "application/json",
			},
			Body: predictReq{Symbol: symbol, Features: features},
		}, &pr)
		if err == nil {
			return pr.Probability, nil
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 0, fmt.Errorf("post /predict: %w", err)
}

var _ domsvc.Classifier = (*HTTPClassifier)(nil)
