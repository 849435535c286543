package client

// ProjectStatus is the lifecycle state of a Project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	}
	return false
}

// TaskStatus is the execution state of a Task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusRunning   TaskStatus = "RUNNING"
	TaskStatusPaused    TaskStatus = "PAUSED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusFailed    TaskStatus = "FAILED"
	TaskStatusCancelled TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusPaused,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are expected.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type LogLevel string

const (
	LogLevelDebug    LogLevel = "DEBUG"
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError, LogLevelCritical:
		return true
	}
	return false
}

type DebugType string

const (
	DebugTypeDebugger  DebugType = "DEBUGGER"
	DebugTypeInspector DebugType = "INSPECTOR"
	DebugTypeProfiler  DebugType = "PROFILER"
)

func (t DebugType) Valid() bool {
	switch t {
	case DebugTypeDebugger, DebugTypeInspector, DebugTypeProfiler:
		return true
	}
	return false
}

type DebugStatus string

const (
	DebugStatusRunning DebugStatus = "RUNNING"
	DebugStatusPaused  DebugStatus = "PAUSED"
	DebugStatusStopped DebugStatus = "STOPPED"
)

func (s DebugStatus) Valid() bool {
	switch s {
	case DebugStatusRunning, DebugStatusPaused, DebugStatusStopped:
		return true
	}
	return false
}

// SortOrder is the direction of an ORDER BY term.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// NullsOrder places NULLs first or last in an ORDER BY term.
type NullsOrder string

const (
	NullsFirst NullsOrder = "first"
	NullsLast  NullsOrder = "last"
)

// QueryMode selects case sensitivity for string filters.
type QueryMode string

const (
	ModeDefault     QueryMode = "default"
	ModeInsensitive QueryMode = "insensitive"
)

// AggregateFunc names an aggregate in GroupBy having/orderBy clauses.
type AggregateFunc string

const (
	AggCount AggregateFunc = "_count"
	AggAvg   AggregateFunc = "_avg"
	AggSum   AggregateFunc = "_sum"
	AggMin   AggregateFunc = "_min"
	AggMax   AggregateFunc = "_max"
)

func (f AggregateFunc) sql() string {
	switch f {
	case AggCount:
		return "COUNT"
	case AggAvg:
		return "AVG"
	case AggSum:
		return "SUM"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	}
	return ""
}

// enum is satisfied by every generated string enum.
type enum interface {
	~string
	Valid() bool
}

func checkEnum[T enum](field string, v T) error {
	if v == "" || v.Valid() {
		return nil
	}
	return validationf("invalid value %q for %s", string(v), field)
}
