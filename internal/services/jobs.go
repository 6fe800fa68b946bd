package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/desertthunder/narrate/internal/models"
)

// Backend job status values.
const (
	StatusProgress = "PROGRESS"
	StatusFailure  = "FAILURE"
	StatusSuccess  = "success"
)

// TaskStatus is one poll response.
type TaskStatus struct {
	Status   string          `json:"status"`
	Progress json.RawMessage `json:"progress,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// ProgressValue returns the progress percentage when the backend sent a number.
func (s TaskStatus) ProgressValue() (float64, bool) {
	if len(s.Progress) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(s.Progress, &v); err != nil {
		return 0, false
	}
	return v, true
}

type submitResponse struct {
	TaskID string `json:"task_id"`
}

type scriptResponse struct {
	FileName string `json:"file_name"`
	Content  struct {
		Script   string           `json:"script"`
		Speakers []models.Speaker `json:"speakers"`
	} `json:"content"`
}

func (c *Client) taskStatus(ctx context.Context, token, prefix, taskID string) (*TaskStatus, error) {
	var st TaskStatus
	path := prefix + url.PathEscape(taskID) + "/"
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) cancelTask(ctx context.Context, token, path, taskID string) error {
	return c.doJSON(ctx, http.MethodPost, path, token, map[string]string{"task_id": taskID}, nil)
}

func submitted(path string, out submitResponse) (string, error) {
	if out.TaskID == "" {
		return "", &TransportError{Op: path, Err: fmt.Errorf("response has no task_id")}
	}
	return out.TaskID, nil
}

// FormatEntitlement checks that the subscription allows another format job.
func (c *Client) FormatEntitlement(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodGet, "/file/subscription_status/", token, nil, nil)
}

// UploadScript submits the file at path for formatting as multipart field "file".
func (c *Client) UploadScript(ctx context.Context, token, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/file/upload/",
		token:       token,
		body:        &buf,
		contentType: mw.FormDataContentType(),
		upload:      true,
	})
	if err != nil {
		return "", err
	}

	var out submitResponse
	if err := decode("/file/upload/", body, &out); err != nil {
		return "", err
	}
	return submitted("/file/upload/", out)
}

// FormatStatus polls a format job.
func (c *Client) FormatStatus(ctx context.Context, token, taskID string) (*TaskStatus, error) {
	return c.taskStatus(ctx, token, "/file/task-status/", taskID)
}

// LatestScript returns the most recently formatted script.
func (c *Client) LatestScript(ctx context.Context, token string) (*models.Script, error) {
	var out scriptResponse
	if err := c.doJSON(ctx, http.MethodGet, "/file/script/", token, nil, &out); err != nil {
		return nil, err
	}
	return &models.Script{
		FileName: out.FileName,
		Text:     out.Content.Script,
		Speakers: out.Content.Speakers,
	}, nil
}

// CancelFormat asks the backend to stop a format job.
func (c *Client) CancelFormat(ctx context.Context, token, taskID string) error {
	return c.cancelTask(ctx, token, "/fileupload/cancel_task/", taskID)
}

// AudioEntitlement checks that the subscription allows another audio job.
func (c *Client) AudioEntitlement(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodGet, "/audio/subscription_audio/", token, nil, nil)
}

// SubmitAudio starts audio generation.
func (c *Client) SubmitAudio(ctx context.Context, token string, req models.AudioRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/audio/tts/",
		token:       token,
		body:        bytes.NewReader(data),
		contentType: "application/json",
		upload:      true,
	})
	if err != nil {
		return "", err
	}

	var out submitResponse
	if err := decode("/audio/tts/", body, &out); err != nil {
		return "", err
	}
	return submitted("/audio/tts/", out)
}

// AudioStatus polls an audio job.
func (c *Client) AudioStatus(ctx context.Context, token, taskID string) (*TaskStatus, error) {
	return c.taskStatus(ctx, token, "/audio/task-status/", taskID)
}

// LatestAudio returns the most recently generated audio.
func (c *Client) LatestAudio(ctx context.Context, token string) (*models.Audio, error) {
	var out models.Audio
	if err := c.doJSON(ctx, http.MethodGet, "/audio/processed_audio/", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelAudio asks the backend to stop an audio job.
func (c *Client) CancelAudio(ctx context.Context, token, taskID string) error {
	return c.cancelTask(ctx, token, "/audio/cancel_audio_task/", taskID)
}
