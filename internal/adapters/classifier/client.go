// Package classifier talks to the leaf-disease inference service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error"`
}

// Client implements ports.DiseaseClassifier. It posts the raw image to
// {baseURL}/predict and returns the model's score vector.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Predict(ctx context.Context, image []byte, contentType string) ([]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: error sending request: %w", domain.ErrProvider, err)
	}
	defer resp.Body.Close()

	var out predictResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrProvider, out.Error)
		}
		return nil, fmt.Errorf("%w: unexpected status code: %d", domain.ErrProvider, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: error decoding response: %w", domain.ErrProvider, decodeErr)
	}
	return out.Predictions, nil
}
