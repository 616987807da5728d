// Package logging defines the engine's event-typed log model and observer
// contract, adapted from the teacher's internal/infrastructure/monitoring
// (log_event.go, observer.go): a LogEvent tagged by EventType carries
// canal/node/line context instead of workflow/node context, and an
// Observer interface lets execution be watched without the core engine
// depending on any particular sink.
package logging

import "time"

// EventType tags a LogEvent with the kind of thing that happened.
type EventType string

const (
	EventCanalStarted   EventType = "canal_started"
	EventCanalCompleted EventType = "canal_completed"
	EventCanalFailed    EventType = "canal_failed"
	EventParseError     EventType = "parse_error"
	EventHandlerError   EventType = "handler_error"
	EventSyncWait       EventType = "sync_wait"
	EventVariableSet    EventType = "variable_set"
)

// Level is the severity of a LogEvent.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warning"
	LevelError Level = "error"
)

// LogEvent is a single structured event raised during one canal's run.
type LogEvent struct {
	Timestamp time.Time
	Type      EventType
	Level     Level
	Message   string
	CanalNr   string
	LineNr    int
	Code      int
	Err       error
	Duration  time.Duration
	Metadata  map[string]any
}

// NewCanalStartedEvent reports the start of one canal's walk.
func NewCanalStartedEvent(canalNr string) LogEvent {
	return LogEvent{Timestamp: time.Now(), Type: EventCanalStarted, Level: LevelInfo,
		Message: "canal started", CanalNr: canalNr}
}

// NewCanalCompletedEvent reports a canal finishing its walk, successfully
// or not (errCount distinguishes the two in the formatted message).
func NewCanalCompletedEvent(canalNr string, duration time.Duration, errCount int) LogEvent {
	level := LevelInfo
	msg := "canal completed"
	if errCount > 0 {
		level = LevelWarn
		msg = "canal completed with errors"
	}
	return LogEvent{Timestamp: time.Now(), Type: EventCanalCompleted, Level: level,
		Message: msg, CanalNr: canalNr, Duration: duration,
		Metadata: map[string]any{"error_count": errCount}}
}

// NewCanalFailedEvent reports a canal whose walk could not produce any
// tool path at all.
func NewCanalFailedEvent(canalNr string, err error, duration time.Duration) LogEvent {
	return LogEvent{Timestamp: time.Now(), Type: EventCanalFailed, Level: LevelError,
		Message: "canal failed", CanalNr: canalNr, Err: err, Duration: duration}
}

// NewParseErrorEvent reports one line's lexer/parser failure (§4.12 step 2:
// per-line parse errors are collected, not fatal).
func NewParseErrorEvent(canalNr string, lineNr, code int, err error) LogEvent {
	return LogEvent{Timestamp: time.Now(), Type: EventParseError, Level: LevelWarn,
		Message: "parse error", CanalNr: canalNr, LineNr: lineNr, Code: code, Err: err}
}

// NewHandlerErrorEvent reports a structural handler error that short-circuits
// a canal (§7: conflicting modals, invalid arc, out-of-range tool, ...).
func NewHandlerErrorEvent(canalNr string, lineNr, code int, err error) LogEvent {
	return LogEvent{Timestamp: time.Now(), Type: EventHandlerError, Level: LevelError,
		Message: "handler error", CanalNr: canalNr, LineNr: lineNr, Code: code, Err: err}
}

// NewSyncWaitEvent reports the synchronizer aligning a wait point across
// canals (§4.11).
func NewSyncWaitEvent(canalNr string, group string, alignedDuration float64) LogEvent {
	return LogEvent{Timestamp: time.Now(), Type: EventSyncWait, Level: LevelDebug,
		Message: "sync wait aligned", CanalNr: canalNr,
		Metadata: map[string]any{"group": group, "aligned_duration": alignedDuration}}
}

// NewVariableSetEvent reports a macro assignment (verbose/debug only).
func NewVariableSetEvent(canalNr, key string, value float64) LogEvent {
	return LogEvent{Timestamp: time.Now(), Type: EventVariableSet, Level: LevelDebug,
		Message: "variable set", CanalNr: canalNr,
		Metadata: map[string]any{"key": key, "value": value}}
}
