package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strings"
	"time"
)

// recognizeRequest is the JSON body posted to a remote recognition service.
type recognizeRequest struct {
	ImageBase64 string `json:"image_base64"`
	Format      string `json:"format"`
}

// recognizeResponse is the JSON body returned by the service.
type recognizeResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Remote recognizes text by posting region images to an HTTP service.
type Remote struct {
	endpoint string
	client   *http.Client
}

// NewRemote creates a remote engine for the given endpoint. A nil client
// uses a default with a 60 second timeout.
func NewRemote(endpoint string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Remote{endpoint: endpoint, client: client}
}

// Name returns the engine identifier ("remote").
func (r *Remote) Name() string { return "remote" }

// Close is a no-op; the underlying HTTP client owns no resources that
// need explicit release.
func (r *Remote) Close() error { return nil }

// Recognize posts the image to the recognition endpoint and decodes the
// text and confidence from the response.
func (r *Remote) Recognize(ctx context.Context, img image.Image) (Result, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}

	body, err := json.Marshal(recognizeRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		Format:      "png",
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("recognition request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("recognition service returned %s", resp.Status)
	}

	var rr recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return Result{}, fmt.Errorf("decode recognition response: %w", err)
	}
	if rr.Error != "" {
		return Result{}, fmt.Errorf("recognition service: %s", rr.Error)
	}

	conf := rr.Confidence
	if conf > 1 {
		conf = conf / 100.0 // services disagree on the confidence scale
	}
	return Result{Text: strings.TrimSpace(rr.Text), Confidence: conf}, nil
}
