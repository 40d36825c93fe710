package session

import (
	"log/slog"
	"sync"
)

// User-visible messages. Network failures and rejected requests share the
// same failure text.
const (
	MsgLoginSucceeded   = "login succeeded"
	MsgLoginFailed      = "login failed"
	MsgRegistered       = "registration succeeded, please log in"
	MsgRegisterFailed   = "registration failed"
	MsgLoggedOut        = "logged out"
	MsgNotAuthenticated = "not logged in"
)

func fetchFailedMsg(c Collection) string { return "failed to fetch " + string(c) }
func addFailedMsg(c Collection) string   { return "failed to add " + c.Singular() }
func addedMsg(c Collection) string       { return c.Singular() + " added" }

// Notifier surfaces short messages to the user.
type Notifier interface {
	Success(msg string)
	Info(msg string)
	Error(msg string)
}

// Level tags a recorded notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is one message delivered to a Recorder.
type Notification struct {
	Level   Level
	Message string
}

// Recorder is a Notifier that keeps every message for later inspection.
type Recorder struct {
	mu   sync.Mutex
	msgs []Notification
}

func (r *Recorder) add(l Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Notification{Level: l, Message: msg})
}

func (r *Recorder) Success(msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Info(msg string)    { r.add(LevelInfo, msg) }
func (r *Recorder) Error(msg string)   { r.add(LevelError, msg) }

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.msgs...)
}

// Drain returns and forgets everything recorded so far.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.msgs
	r.msgs = nil
	return msgs
}

// LogNotifier writes notifications to a slog.Logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n LogNotifier) Success(msg string) { n.logger().Info(msg) }
func (n LogNotifier) Info(msg string)    { n.logger().Info(msg) }
func (n LogNotifier) Error(msg string)   { n.logger().Warn(msg) }
