package runs

import (
	"strings"
	"time"
)

// RunStatus represents the lifecycle state of a run.
type RunStatus string

// RunStatuses for the run lifecycle. A run always re-enters via
// idle -> running; succeeded and failed are terminal.
const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// ToString converts the RunStatus to its string representation.
func (s RunStatus) ToString() string {
	return string(s)
}

// Terminal reports whether the status is a terminal state.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// RunMode represents the kind of processing a run performs.
type RunMode string

// RunModes supported by the service.
const (
	RunModeValidation RunMode = "validation"
	RunModeExtraction RunMode = "extraction"
)

// LogLevel represents the severity of a console line.
type LogLevel string

// LogLevels recognized on run events.
const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
	LogLevelSuccess LogLevel = "success"
)

// ParseLogLevel parses a level field case-insensitively, defaulting to
// info when the value is not one of the recognized levels.
func ParseLogLevel(value string) LogLevel {
	switch LogLevel(strings.ToLower(value)) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelInfo:
		return LogLevelInfo
	case LogLevelWarning:
		return LogLevelWarning
	case LogLevelError:
		return LogLevelError
	case LogLevelSuccess:
		return LogLevelSuccess
	default:
		return LogLevelInfo
	}
}

// Origin represents which half of the execution emitted a console line.
type Origin string

// Origins for console lines.
const (
	OriginRun         Origin = "run"
	OriginEnvironment Origin = "environment"
)

const (
	// EventRunCompleted is the reserved terminal event name. Streaming for
	// a run stops once it is seen.
	EventRunCompleted = "run.completed"

	// EnvironmentEventPrefix marks events emitted while provisioning the
	// execution environment rather than by the run itself.
	EnvironmentEventPrefix = "environment."
)

// ConsoleLine represents one rendered line of a run's execution console.
type ConsoleLine struct {
	ID        string
	Level     LogLevel
	Message   string
	Timestamp string
	Origin    Origin
	Raw       map[string]any
}

// RunEvent represents one event from a run's execution stream, ordered by
// the server-assigned sequence number.
type RunEvent struct {
	ID          string
	Name        string
	SequenceNum uint64
	Level       string
	Message     string
	Timestamp   string
	Payload     map[string]any
}

// Origin classifies the event: events named with the environment prefix,
// or whose payload carries an explicit scope field, belong to the
// environment; everything else belongs to the run.
func (e *RunEvent) Origin() Origin {
	if strings.HasPrefix(e.Name, EnvironmentEventPrefix) {
		return OriginEnvironment
	}
	if _, ok := e.Payload["scope"]; ok {
		return OriginEnvironment
	}
	return OriginRun
}

// CompletedDetails is the frozen payload of the terminal run event.
type CompletedDetails map[string]any

// Status returns the payload's status field, or "" when absent.
func (d CompletedDetails) Status() string {
	status, _ := d["status"].(string)
	return status
}

// Succeeded reports whether the terminal payload marks the run as
// successful. The comparison is case-insensitive and accepts both
// "succeeded" and "success".
func (d CompletedDetails) Succeeded() bool {
	switch strings.ToLower(d.Status()) {
	case "succeeded", "success":
		return true
	default:
		return false
	}
}

// Execution returns the execution block of the terminal payload
// (started_at, completed_at, duration_ms), or nil when absent.
func (d CompletedDetails) Execution() map[string]any {
	execution, _ := d["execution"].(map[string]any)
	return execution
}

// Artifacts returns the artifacts block of the terminal payload
// (output_path, processed_file), or nil when absent.
func (d CompletedDetails) Artifacts() map[string]any {
	artifacts, _ := d["artifacts"].(map[string]any)
	return artifacts
}

// Now returns the current time in the wire timestamp format.
func Now() string {
	return time.Now().Format(time.RFC3339Nano)
}
