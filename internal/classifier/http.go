package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"herdsnap/internal/census"
)

type predictRequest struct {
	Features []float64 `json:"features"`
}

type predictResponse struct {
	Category *int `json:"category"`
}

// HTTPClassifier calls a remote model server exposing POST /predict.
type HTTPClassifier struct {
	httpClient *resty.Client
}

// NewHTTPClassifier creates a client for the model server at baseURL.
func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("content-type", "application/json").
		SetTimeout(timeout)

	return &HTTPClassifier{httpClient: client}
}

// Classify posts the feature vector and decodes {"category": int|null}.
func (c *HTTPClassifier) Classify(ctx context.Context, features census.Features) (int, error) {
	var out predictResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(predictRequest{Features: features[:]}).
		SetResult(&out).
		Post("/predict")
	if err != nil {
		return 0, fmt.Errorf("calling classifier: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("classifier returned status %d", resp.StatusCode())
	}
	if out.Category == nil {
		return 0, ErrNoCategory
	}
	return *out.Category, nil
}
