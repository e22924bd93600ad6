package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"yt-chat/errors"
	"yt-chat/models"

	"github.com/gofiber/fiber/v2"
)

type fakeVideoService struct {
	videos      map[int64]*models.Video
	transcripts map[int64]*models.Transcript
	submitted   []string
	retried     []int64
}

func newFakeVideoService() *fakeVideoService {
	return &fakeVideoService{
		videos:      make(map[int64]*models.Video),
		transcripts: make(map[int64]*models.Transcript),
	}
}

func (f *fakeVideoService) Submit(ctx context.Context, url string) (*models.Video, error) {
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return nil, errors.InvalidInput("VideoService.Submit", nil, "Invalid YouTube URL")
	}
	f.submitted = append(f.submitted, url)
	v := &models.Video{ID: int64(len(f.submitted)), URL: url, Status: models.StatusPending}
	f.videos[v.ID] = v
	return v, nil
}

func (f *fakeVideoService) Get(ctx context.Context, id int64) (*models.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, errors.NotFound("VideoService.Get", nil, "Video not found")
	}
	return v, nil
}

func (f *fakeVideoService) GetTranscript(ctx context.Context, id int64) (*models.Transcript, error) {
	t, ok := f.transcripts[id]
	if !ok {
		return nil, errors.NotFound("VideoService.GetTranscript", nil, "Transcript not found")
	}
	return t, nil
}

func (f *fakeVideoService) Retry(ctx context.Context, id int64) (*models.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, errors.NotFound("VideoService.Retry", nil, "Video not found")
	}
	if v.Status != models.StatusFailed {
		return nil, errors.Conflict("VideoService.Retry", nil, "Video is not in a failed state")
	}
	f.retried = append(f.retried, id)
	v.Status = models.StatusPending
	return v, nil
}

func newTestApp(service *fakeVideoService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	h := NewVideoHandler(service)
	app.Post("/api/videos", h.Submit)
	app.Get("/api/videos/:id", h.Get)
	app.Post("/api/videos/:id/retry", h.Retry)
	app.Get("/health", HealthCheck)
	return app
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(newFakeVideoService())

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected status code %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	var response struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		t.Fatalf("Failed to unmarshal response body: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("Expected status \"ok\", got %q", response.Status)
	}
	if _, err := time.Parse(time.RFC3339, response.Timestamp); err != nil {
		t.Errorf("Invalid timestamp format: %v", err)
	}
}

func TestSubmitVideo(t *testing.T) {
	service := newFakeVideoService()
	app := newTestApp(service)

	body := strings.NewReader(`{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
	req := httptest.NewRequest("POST", "/api/videos", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}

	if resp.StatusCode != fiber.StatusAccepted {
		t.Errorf("Expected status code %d, got %d", fiber.StatusAccepted, resp.StatusCode)
	}
	if len(service.submitted) != 1 {
		t.Errorf("Expected 1 submission, got %d", len(service.submitted))
	}
}

func TestSubmitVideoMissingURL(t *testing.T) {
	app := newTestApp(newFakeVideoService())

	req := httptest.NewRequest("POST", "/api/videos", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	app := newTestApp(newFakeVideoService())

	req := httptest.NewRequest("GET", "/api/videos/42", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}

	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", fiber.StatusNotFound, resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	var response struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		t.Fatalf("Failed to unmarshal response body: %v", err)
	}
	if response.Success {
		t.Error("Expected success=false for missing video")
	}
	if response.Error != "Video not found" {
		t.Errorf("Unexpected error message: %q", response.Error)
	}
}

func TestGetVideoInvalidID(t *testing.T) {
	app := newTestApp(newFakeVideoService())

	req := httptest.NewRequest("GET", "/api/videos/abc", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestGetCompletedVideoIncludesTranscript(t *testing.T) {
	service := newFakeVideoService()
	service.videos[1] = &models.Video{
		ID:     1,
		URL:    "https://www.youtube.com/watch?v=abc",
		Status: models.StatusCompleted,
	}
	service.transcripts[1] = &models.Transcript{
		ID:      1,
		VideoID: 1,
		Content: "hello world",
	}
	app := newTestApp(service)

	req := httptest.NewRequest("GET", "/api/videos/1", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status code %d, got %d", fiber.StatusOK, resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	var response struct {
		Success    bool `json:"success"`
		Transcript *struct {
			Content string `json:"content"`
		} `json:"transcript"`
	}
	if err := json.Unmarshal(bodyBytes, &response); err != nil {
		t.Fatalf("Failed to unmarshal response body: %v", err)
	}
	if response.Transcript == nil {
		t.Fatal("Expected transcript in response for completed video")
	}
	if response.Transcript.Content != "hello world" {
		t.Errorf("Unexpected transcript content: %q", response.Transcript.Content)
	}
}

func TestRetryRequiresFailedState(t *testing.T) {
	service := newFakeVideoService()
	service.videos[1] = &models.Video{ID: 1, Status: models.StatusCompleted}
	service.videos[2] = &models.Video{ID: 2, Status: models.StatusFailed}
	app := newTestApp(service)

	req := httptest.NewRequest("POST", "/api/videos/1/retry", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("Expected status code %d, got %d", fiber.StatusConflict, resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/api/videos/2/retry", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Failed to test request: %v", err)
	}
	if resp.StatusCode != fiber.StatusAccepted {
		t.Errorf("Expected status code %d, got %d", fiber.StatusAccepted, resp.StatusCode)
	}
	if len(service.retried) != 1 || service.retried[0] != 2 {
		t.Errorf("Expected retry dispatched for video 2, got %v", service.retried)
	}
}
