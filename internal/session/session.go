// Package session holds the per-user state of the insight workflow: its
// identity, its log, and the last request and outputs.
package session

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/insight-cli/internal/model"
)

// DefaultDir is where session logs are written when no directory is given.
const DefaultDir = "session_logs"

// MsgReset is logged and shown after a reset.
const MsgReset = "Application reset successfully! Ready for a new session."

// Session owns the state of one interactive session. All methods are safe
// for concurrent use.
type Session struct {
	mu        sync.RWMutex
	dir       string
	id        string
	startedAt time.Time
	logPath   string
	file      *os.File
	log       *zap.Logger
	busy      bool

	request *model.InsightRequest
	insight *model.GeneratedInsight
	summary string
	report  *model.RenderedReport
}

// New starts a session whose log is written under dir.
func New(dir string) (*Session, error) {
	if dir == "" {
		dir = DefaultDir
	}
	s := &Session{dir: dir}
	if err := s.open(); err != nil {
		return nil, err
	}
	s.log.Info("Application started")
	return s, nil
}

// NewID returns a session identity derived from t. The uuid suffix keeps
// identities distinct when two sessions start within the same second.
func NewID(t time.Time) string {
	return t.Format("20060102_150405") + "_" + uuid.NewString()[:8]
}

// open assigns a fresh identity and log. Callers hold mu or own s exclusively.
func (s *Session) open() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrap(err, "session: create log dir")
	}

	now := time.Now()
	id := NewID(now)
	path := filepath.Join(s.dir, "session_"+id+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrap(err, "session: open log file")
	}

	fileCore := zapcore.NewCore(NewEncoder(), zapcore.AddSync(f), zapcore.InfoLevel)
	globalCore := zap.L().Core().With([]zapcore.Field{zap.String("session_id", id)})

	s.id = id
	s.startedAt = now
	s.logPath = path
	s.file = f
	s.log = zap.New(zapcore.NewTee(fileCore, globalCore))
	return nil
}

// NewEncoder returns the encoder for session log files. Lines read
// "timestamp - LEVEL - message", with structured fields appended as JSON.
func NewEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05,000"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	})
}

func (s *Session) closeLog() error {
	if s.file == nil {
		return nil
	}
	_ = s.log.Sync()
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return eris.Wrap(err, "session: close log file")
	}
	return nil
}

// ID returns the current session identity.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// StartedAt returns when the current identity was created.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// LogPath returns the file the current identity logs to.
func (s *Session) LogPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logPath
}

// Log returns the session logger.
func (s *Session) Log() *zap.Logger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.log
}

// TryBegin marks the session busy. It returns false when a submission is
// already in flight.
func (s *Session) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

// End clears the busy mark set by TryBegin.
func (s *Session) End() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// StoreResult replaces the request and outputs together so readers never see
// a request paired with another run's outputs. summary may be empty and
// report may be nil.
func (s *Session) StoreResult(req *model.InsightRequest, insight *model.GeneratedInsight, summary string, report *model.RenderedReport) {
	s.mu.Lock()
	s.request = req
	s.insight = insight
	s.summary = summary
	s.report = report
	s.mu.Unlock()
}

// Request returns the request of the last successful run, or nil.
func (s *Session) Request() *model.InsightRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.request
}

// Insight returns the stored insight, or nil.
func (s *Session) Insight() *model.GeneratedInsight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.insight
}

// Summary returns the stored summary, or "".
func (s *Session) Summary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Report returns the stored report, or nil.
func (s *Session) Report() *model.RenderedReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Reset discards all state, closes the current log, and starts a new
// identity with a new log.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("Application reset")
	if err := s.closeLog(); err != nil {
		return err
	}

	s.request = nil
	s.insight = nil
	s.summary = ""
	s.report = nil
	s.busy = false

	if err := s.open(); err != nil {
		s.log = zap.L()
		return err
	}
	s.log.Info(MsgReset)
	return nil
}

// Close flushes and closes the session log.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		s.log.Info("Application session ended")
	}
	return s.closeLog()
}
