package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/esatsite/api"
	"github.com/dfryer1193/esatsite/content/application"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type fakeRevalidator struct {
	calls []application.RevalidationRequest
	err   error
}

func (f *fakeRevalidator) Revalidate(_ context.Context, req application.RevalidationRequest) error {
	f.calls = append(f.calls, req)
	return f.err
}

func newTestRouter(token string, rev Revalidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewRevalidateHandler(token, rev)
	h.now = func() time.Time {
		return time.Date(2024, 5, 1, 8, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	}
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func TestHandleRevalidate(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     string
		body       string
		revErr     error
		wantStatus int
		wantMsg    string
		wantCalls  int
	}{
		{
			name:       "valid",
			token:      "s3cret",
			header:     "Bearer s3cret",
			body:       `{"type":"product","path":"/san-pham/camera-ip"}`,
			wantStatus: http.StatusOK,
			wantMsg:    "Revalidation triggered",
			wantCalls:  1,
		},
		{
			name:       "wrong token",
			token:      "s3cret",
			header:     "Bearer nope",
			body:       `{"type":"all"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid token",
		},
		{
			name:       "missing header",
			token:      "s3cret",
			body:       `{"type":"all"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid token",
		},
		{
			name:       "unconfigured token",
			token:      "",
			header:     "Bearer ",
			body:       `{"type":"all"}`,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "Invalid token",
		},
		{
			name:       "malformed body",
			token:      "s3cret",
			header:     "Bearer s3cret",
			body:       `{"type":`,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
		},
		{
			name:       "invalidation failure",
			token:      "s3cret",
			header:     "Bearer s3cret",
			body:       `{"tag":"products"}`,
			revErr:     errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev := &fakeRevalidator{err: tt.revErr}
			r := newTestRouter(tt.token, rev)

			req := httptest.NewRequest(http.MethodPost, RevalidatePath, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if len(rev.calls) != tt.wantCalls {
				t.Errorf("Revalidate calls = %d, want %d", len(rev.calls), tt.wantCalls)
			}

			var resp api.RevalidateResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
			}
			if resp.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Message, tt.wantMsg)
			}
			if resp.Success != (tt.wantStatus == http.StatusOK) {
				t.Errorf("success = %v with status %d", resp.Success, w.Code)
			}
		})
	}
}

func TestHandleRevalidate_EchoesRequest(t *testing.T) {
	rev := &fakeRevalidator{}
	r := newTestRouter("s3cret", rev)

	req := httptest.NewRequest(http.MethodPost, RevalidatePath,
		strings.NewReader(`{"path":"/bai-viet/tin-moi","tag":"posts","type":"post"}`))
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp api.RevalidateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := api.RevalidateRequest{Path: "/bai-viet/tin-moi", Tag: "posts", Type: "post"}
	if resp.Revalidated == nil || *resp.Revalidated != want {
		t.Errorf("revalidated = %+v, want %+v", resp.Revalidated, want)
	}
	if resp.Timestamp != "2024-05-01T01:30:00.000Z" {
		t.Errorf("timestamp = %q, want 2024-05-01T01:30:00.000Z", resp.Timestamp)
	}

	got := rev.calls[0]
	if got.Path != want.Path || got.Tag != want.Tag || got.Type != application.RevalidatePost {
		t.Errorf("Revalidate(%+v), want %+v", got, want)
	}
}

func TestHandleUsage(t *testing.T) {
	r := newTestRouter("s3cret", &fakeRevalidator{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, RevalidatePath, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var usage api.RevalidateUsage
	if err := json.Unmarshal(w.Body.Bytes(), &usage); err != nil {
		t.Fatalf("failed to decode usage: %v", err)
	}
	if usage.Message != "Revalidation API is running" {
		t.Errorf("message = %q", usage.Message)
	}
}
