//
//
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/radio-control/cellstate/internal/auth"
	"github.com/radio-control/cellstate/internal/clocksync"
	"github.com/radio-control/cellstate/internal/modem"
	"github.com/radio-control/cellstate/internal/notify"
	"github.com/radio-control/cellstate/internal/tracker"
)

// FileName is the active audit file inside the audit directory.
const FileName = "audit.jsonl"

// Entry is one audit record.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	User      string                 `json:"user"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Outcome   string                 `json:"outcome"`
	Code      string                 `json:"code"`
}

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Logger appends entries to a rotating JSONL file.
type Logger struct {
	mu     sync.Mutex
	path   string
	out    io.WriteCloser
	logger *slog.Logger
	now    func() time.Time
}

// Options configures rotation.
type Options struct {
	MaxSizeMB  int
	MaxBackups int
	Logger     *slog.Logger
}

// NewLogger opens dir/audit.jsonl, creating dir if needed.
func NewLogger(dir string, opts Options) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := filepath.Join(dir, FileName)
	return &Logger{
		path: path,
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		},
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}, nil
}

// LogControlAction records an API control request. The user comes from
// the request's claims.
func (l *Logger) LogControlAction(ctx context.Context, action string, params map[string]interface{}, err error) {
	entry := Entry{
		Timestamp: l.now().UTC(),
		User:      userFromContext(ctx),
		Action:    action,
		Params:    params,
		Outcome:   OutcomeSuccess,
		Code:      codeFromError(err),
	}
	if err != nil {
		entry.Outcome = OutcomeFailure
	}
	l.write(entry)
}

// RecordEvent records a bus event. It is meant to be registered with
// notify.Bus.SubscribeAll.
// Signal measurements are not transitions and are skipped.
func (l *Logger) RecordEvent(ev notify.Event) {
	if ev.Kind == notify.SignalStrengthChanged {
		return
	}
	params := map[string]interface{}{}
	switch {
	case ev.Service != nil:
		params["state"] = ev.Service.State.String()
		params["roaming"] = ev.Service.Roaming
		if ev.Service.Operator.Numeric != "" {
			params["operator"] = ev.Service.Operator.Numeric
		}
	case ev.Time != nil:
		params["time"] = ev.Time.UTC().Format(time.RFC3339)
	case ev.Zone != "":
		params["zone"] = ev.Zone
	}
	l.write(Entry{
		Timestamp: ev.At.UTC(),
		User:      "system",
		Action:    ev.Kind.String(),
		Params:    params,
		Outcome:   OutcomeSuccess,
		Code:      "OK",
	})
}

func (l *Logger) write(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("failed to marshal audit entry", "action", entry.Action, "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		l.logger.Error("failed to write audit entry", "action", entry.Action, "error", err)
	}
}

// Path returns the active audit file.
func (l *Logger) Path() string {
	return l.path
}

// Rotate closes the active file and starts a new one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lj, ok := l.out.(*lumberjack.Logger); ok {
		return lj.Rotate()
	}
	return nil
}

// Close flushes and closes the file. Later entries are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

func userFromContext(ctx context.Context) string {
	if c := auth.ClaimsFromContext(ctx); c != nil && c.Subject != "" {
		return c.Subject
	}
	return "unknown"
}

// codeFromError maps a control failure onto the API error codes.
func codeFromError(err error) string {
	switch {
	case err == nil:
		return "OK"
	case errors.Is(err, tracker.ErrDisposed):
		return "UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "TIMEOUT"
	case errors.Is(err, modem.ErrRadioNotAvailable):
		return "RADIO_NOT_AVAILABLE"
	case errors.Is(err, modem.ErrOpNotAllowedBeforeReg):
		return "NOT_REGISTERED"
	case errors.Is(err, modem.ErrRequestNotSupported):
		return "NOT_SUPPORTED"
	case errors.Is(err, clocksync.ErrSetTime):
		return "CLOCK_SET_FAILED"
	default:
		return "INTERNAL"
	}
}
