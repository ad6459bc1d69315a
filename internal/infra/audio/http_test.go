package audio_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voicebank/internal/domain"
	"voicebank/internal/infra/audio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPSource_ReceiveRequest(t *testing.T) {
	source := audio.NewHTTPSource(":0", "user123", "", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}
	defer source.Stop()

	testAudio := []byte("fake audio data for testing")

	go func() {
		time.Sleep(100 * time.Millisecond)
		source.Inject(&domain.Request{Kind: domain.KindCommand, UserID: "user123", Audio: testAudio})
	}()

	received, err := source.NextRequest(ctx)
	if err != nil {
		t.Fatalf("receiving request: %v", err)
	}

	if received.Kind != domain.KindCommand {
		t.Errorf("kind = %q, want command", received.Kind)
	}
	if !bytes.Equal(received.Audio, testAudio) {
		t.Errorf("audio mismatch: got %d bytes, want %d bytes", len(received.Audio), len(testAudio))
	}
}

func TestHTTPSource_AudioEndpoint(t *testing.T) {
	source := audio.NewHTTPSource(":0", "user123", "", discardLogger())
	handler := source.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/audio", bytes.NewReader([]byte("test audio content")))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusAccepted)
	}

	got, err := source.NextRequest(context.Background())
	if err != nil {
		t.Fatalf("next request: %v", err)
	}
	if got.UserID != "user123" {
		t.Errorf("user = %q, want the default user", got.UserID)
	}
}

func TestHTTPSource_AudioEndpointEmptyBody(t *testing.T) {
	source := audio.NewHTTPSource(":0", "user123", "", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/audio", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	source.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHTTPSource_TextEndpointUserOverride(t *testing.T) {
	source := audio.NewHTTPSource(":0", "user123", "", discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/text?user=alice", strings.NewReader("check balance"))
	rec := httptest.NewRecorder()
	source.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status code: got %d, want %d", rec.Code, http.StatusAccepted)
	}

	got, err := source.NextRequest(context.Background())
	if err != nil {
		t.Fatalf("next request: %v", err)
	}
	if got.UserID != "alice" {
		t.Errorf("user = %q, want alice", got.UserID)
	}
	if got.Text != "check balance" {
		t.Errorf("text = %q", got.Text)
	}
	if !got.IsText() {
		t.Error("text requests should skip speech recognition")
	}
}

func TestHTTPSource_EnrollEndpointAuth(t *testing.T) {
	authToken := "test-secret-token-123"
	source := audio.NewHTTPSource(":0", "user123", authToken, discardLogger())
	handler := source.Handler()

	tests := []struct {
		name       string
		token      string
		inHeader   bool
		wantStatus int
	}{
		{"valid token in header", authToken, true, http.StatusAccepted},
		{"valid token in query", authToken, false, http.StatusAccepted},
		{"wrong token", "nope", true, http.StatusUnauthorized},
		{"missing token", "", true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/v1/enroll"
			if !tt.inHeader && tt.token != "" {
				url += "?token=" + tt.token
			}
			req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader([]byte("voice sample")))
			if tt.inHeader && tt.token != "" {
				req.Header.Set("X-Auth-Token", tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	// The two accepted enrollments are queued with the right kind.
	for i := 0; i < 2; i++ {
		got, err := source.NextRequest(context.Background())
		if err != nil {
			t.Fatalf("next request: %v", err)
		}
		if got.Kind != domain.KindEnroll {
			t.Errorf("kind = %q, want enroll", got.Kind)
		}
	}
}

func TestHTTPSource_HealthEndpoint(t *testing.T) {
	source := audio.NewHTTPSource(":0", "user123", "", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	source.Handler().ServeHTTP(rec, req)

	// Not started yet.
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status code before start: got %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := source.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer source.Stop()

	rec = httptest.NewRecorder()
	source.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status code after start: got %d, want %d", rec.Code, http.StatusOK)
	}
}
