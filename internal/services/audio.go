package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
)

// Voices lists the voices available for synthesis.
func (c *Client) Voices(ctx context.Context, token string) ([]models.Voice, error) {
	var out []models.Voice
	if err := c.doJSON(ctx, http.MethodGet, "/audio/tts/", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PreviewVoice synthesizes text with voiceID and returns the audio bytes.
func (c *Client) PreviewVoice(ctx context.Context, token, voiceID, text string) ([]byte, error) {
	data, err := json.Marshal(map[string]string{"voice_id": voiceID, "text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/audio/preview/",
		token:       token,
		body:        bytes.NewReader(data),
		contentType: "application/json",
		accept:      "audio/mpeg",
	})
}

// DeleteAudio removes a generated audio file by name.
func (c *Client) DeleteAudio(ctx context.Context, token, fileName string) error {
	return c.doJSON(ctx, http.MethodDelete, "/audio/delete_single_audio/", token, map[string]string{"file_name": fileName}, nil)
}

// Download streams the file at a signed URL into w. The URL is absolute and
// carries its own authorization, so no bearer token is sent.
func (c *Client) Download(ctx context.Context, signedURL string, w io.Writer) (int64, error) {
	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &TransportError{Op: "download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, newAPIError(resp.StatusCode, body)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &TransportError{Op: "download", Err: err}
	}
	return n, nil
}
