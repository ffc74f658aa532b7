package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// logBuffer is written by server goroutines and read by the test
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

func (b *logBuffer) String() string {
	return string(b.Bytes())
}

type MiddlewareTestSuite struct {
	suite.Suite
	logs   *logBuffer
	logger *slog.Logger
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}

func (s *MiddlewareTestSuite) SetupTest() {
	s.logs = &logBuffer{}
	s.logger = slog.New(slog.NewJSONHandler(s.logs, nil))
}

func (s *MiddlewareTestSuite) lastLog() map[string]any {
	lines := bytes.Split(bytes.TrimSpace(s.logs.Bytes()), []byte("\n"))
	var entry map[string]any
	s.Require().NoError(json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func (s *MiddlewareTestSuite) TestLoggingRecordsStatusAndSize() {
	h := Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	entry := s.lastLog()
	s.Equal("http request", entry["msg"])
	s.Equal("/api/v1/stats", entry["path"])
	s.EqualValues(http.StatusTeapot, entry["status"])
	s.EqualValues(5, entry["size"])
	s.Equal("WARN", entry["level"])
}

func (s *MiddlewareTestSuite) TestLoggingLevelFollowsStatus() {
	for status, level := range map[int]string{
		http.StatusOK:                  "INFO",
		http.StatusNotFound:            "WARN",
		http.StatusServiceUnavailable:  "ERROR",
		http.StatusInternalServerError: "ERROR",
	} {
		h := Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		s.Equal(level, s.lastLog()["level"], status)
	}
}

func (s *MiddlewareTestSuite) TestLoggingWebSocketSession() {
	h := Logging(s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))

	srv := httptest.NewServer(h)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ws", nil)
	s.Require().NoError(err)
	_, _ = http.DefaultClient.Do(req)

	s.Eventually(func() bool { return bytes.Contains(s.logs.Bytes(), []byte("websocket session closed")) },
		time.Second, 10*time.Millisecond)
	entry := s.lastLog()
	s.EqualValues(http.StatusSwitchingProtocols, entry["status"])
	s.NotContains(entry, "size")
}

func (s *MiddlewareTestSuite) TestHijackUnsupported() {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}

	_, _, err := rec.Hijack()
	s.Error(err)
	s.Equal(http.StatusOK, rec.status)
	s.False(rec.upgraded)
}

func (s *MiddlewareTestSuite) TestRecoveryWritesError() {
	h := Recovery(s.logger, DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Equal("panic recovered", s.lastLog()["msg"])
}

func (s *MiddlewareTestSuite) TestRecoverySkipsResponseOnUpgrade() {
	called := false
	h := Recovery(s.logger, func(http.ResponseWriter, *http.Request, any) { called = true })(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)

	s.False(called)
	s.Equal("panic recovered", s.lastLog()["msg"])
}

func (s *MiddlewareTestSuite) TestRecoveryPassesAbortThrough() {
	h := Recovery(s.logger, DefaultPanicHandler)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	s.PanicsWithValue(http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	s.Empty(s.logs.String())
}
