package middleware_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hotsoonripper/internal/infrastructure/delivery/http/middleware"

	"github.com/google/uuid"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecoverer(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantPanic  any
		wantStatus int
	}{
		{
			name: "no panic",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "string panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic("test panic")
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "error panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic(errors.New("test error panic"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "http.ErrAbortHandler re-panic",
			handler: func(_ http.ResponseWriter, _ *http.Request) {
				panic(http.ErrAbortHandler)
			},
			wantPanic: http.ErrAbortHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true

				tt.handler(w, r)
			})

			mw := middleware.Recoverer(discard())(next)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			if tt.wantPanic != nil {
				defer func() {
					recovered := recover()
					if recovered != tt.wantPanic {
						t.Errorf("got panic %v, want %v", recovered, tt.wantPanic)
					}
				}()
			}

			mw.ServeHTTP(rec, req)

			if !called {
				t.Error("next handler was not called")
			}

			if got := rec.Result().StatusCode; got != tt.wantStatus {
				t.Errorf("got status %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`done`))
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/v1/status?x=1", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	rec := httptest.NewRecorder()
	middleware.RequestID(middleware.Logger(log)(next)).ServeHTTP(rec, req)

	if body := rec.Body.String(); body != "done" {
		t.Errorf("got %q, want %q", body, "done")
	}

	var entry struct {
		Level     string                `json:"level"`
		Msg       string                `json:"msg"`
		RequestID string                `json:"request_id"`
		Request   middleware.RequestLog `json:"request"`
	}

	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to unmarshal log entry %q: %v", buf.String(), err)
	}

	if entry.Level != "DEBUG" || entry.Msg != "http request" {
		t.Errorf("unexpected entry: %+v", entry)
	}

	if entry.RequestID == "" || entry.RequestID != rec.Header().Get(middleware.HeaderXRequestID) {
		t.Errorf("request id %q not logged", entry.RequestID)
	}

	if entry.Request.Method != http.MethodGet || entry.Request.Status != http.StatusTeapot {
		t.Errorf("unexpected request log: %+v", entry.Request)
	}

	if !strings.HasSuffix(entry.Request.URI, "/v1/status?x=1") || entry.Request.RemoteAddr != "1.2.3.4:1234" {
		t.Errorf("unexpected request log: %+v", entry.Request)
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name        string
		headerValue string
		validateID  func(string) bool
	}{
		{
			name:        "existing requestID",
			headerValue: "test-request-1234",
			validateID:  func(id string) bool { return id == "test-request-1234" },
		},
		{
			name: "generated requestID",
			validateID: func(id string) bool {
				_, err := uuid.Parse(id)

				return err == nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctxChecked := false

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reqID, ok := r.Context().Value(middleware.RequestIDKey).(string)
				if !ok || !tt.validateID(reqID) {
					t.Errorf("requestID in context is invalid: %q", reqID)
				}

				ctxChecked = true

				_, _ = w.Write([]byte("ok"))
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.headerValue != "" {
				req.Header.Set(middleware.HeaderXRequestID, tt.headerValue)
			}

			rec := httptest.NewRecorder()
			middleware.RequestID(next).ServeHTTP(rec, req)

			if !ctxChecked {
				t.Error("next handler was not called")
			}

			if resID := rec.Result().Header.Get(middleware.HeaderXRequestID); !tt.validateID(resID) {
				t.Errorf("X-Request-ID header is invalid: %q", resID)
			}
		})
	}
}
