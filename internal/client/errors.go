package client

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Error codes, numbered like the query engine errors callers already know.
const (
	CodeUniqueConstraint     = "P2002"
	CodeForeignKeyConstraint = "P2003"
	CodeConstraintFailed     = "P2004"
	CodeValidation           = "P2009"
	CodeNullConstraint       = "P2011"
	CodeRecordNotFound       = "P2025"
	CodeTransactionTimeout   = "P2028"
)

var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrUniqueConstraint     = errors.New("unique constraint failed")
	ErrForeignKeyConstraint = errors.New("foreign key constraint failed")
	ErrConstraint           = errors.New("constraint failed")
	ErrNullConstraint       = errors.New("null constraint violation")
	ErrValidation           = errors.New("invalid query arguments")
	ErrTransactionTimeout   = errors.New("transaction timed out")
	ErrTaskCycle            = errors.New("task cannot become its own ancestor")
	ErrUnknownModel         = errors.New("unknown model")
	ErrUnknownOperation     = errors.New("unknown operation")
)

// KnownRequestError is a failure the database reported for a well-formed
// request, tagged with a stable code.
type KnownRequestError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
	kind    error
	cause   error
}

func (e *KnownRequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches the sentinel for the error's kind.
func (e *KnownRequestError) Is(target error) bool {
	return e.kind == target
}

func (e *KnownRequestError) Unwrap() error {
	return e.cause
}

// ValidationError reports arguments rejected before any SQL ran.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func notFound(model, op string) error {
	return &KnownRequestError{
		Code:    CodeRecordNotFound,
		Message: fmt.Sprintf("no %s record found for %s", model, op),
		Meta:    map[string]any{"modelName": model},
		kind:    ErrRecordNotFound,
	}
}

var uniqueColumnsRe = regexp.MustCompile(`UNIQUE constraint failed: ([\w., ]+)`)

// mapError converts driver errors into KnownRequestError values. SQLite
// reports constraint failures only as text, so both drivers are matched on
// the message.
func mapError(model string, err error) error {
	if err == nil {
		return nil
	}
	var known *KnownRequestError
	var invalid *ValidationError
	if errors.As(err, &known) || errors.As(err, &invalid) || errors.Is(err, sql.ErrNoRows) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY constraint failed"):
		target := []string{}
		if m := uniqueColumnsRe.FindStringSubmatch(msg); m != nil {
			for _, col := range strings.Split(m[1], ",") {
				col = strings.TrimSpace(col)
				if i := strings.LastIndex(col, "."); i >= 0 {
					col = col[i+1:]
				}
				target = append(target, col)
			}
		}
		return &KnownRequestError{
			Code:    CodeUniqueConstraint,
			Message: fmt.Sprintf("unique constraint failed on %s(%s)", model, strings.Join(target, ", ")),
			Meta:    map[string]any{"modelName": model, "target": target},
			kind:    ErrUniqueConstraint,
			cause:   err,
		}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &KnownRequestError{
			Code:    CodeForeignKeyConstraint,
			Message: fmt.Sprintf("foreign key constraint failed on %s", model),
			Meta:    map[string]any{"modelName": model},
			kind:    ErrForeignKeyConstraint,
			cause:   err,
		}
	case strings.Contains(msg, "CHECK constraint failed"):
		return &KnownRequestError{
			Code:    CodeConstraintFailed,
			Message: fmt.Sprintf("check constraint failed on %s", model),
			Meta:    map[string]any{"modelName": model},
			kind:    ErrConstraint,
			cause:   err,
		}
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return &KnownRequestError{
			Code:    CodeNullConstraint,
			Message: fmt.Sprintf("null constraint violation on %s", model),
			Meta:    map[string]any{"modelName": model},
			kind:    ErrNullConstraint,
			cause:   err,
		}
	}
	return err
}

func cycleError(taskID string) error {
	return &KnownRequestError{
		Code:    CodeConstraintFailed,
		Message: fmt.Sprintf("task %s cannot become its own ancestor", taskID),
		Meta:    map[string]any{"modelName": "Task", "field": "parentId"},
		kind:    ErrTaskCycle,
	}
}

// ErrorCode returns the stable code carried by err, or "" for unknown errors.
func ErrorCode(err error) string {
	var known *KnownRequestError
	if errors.As(err, &known) {
		return known.Code
	}
	if errors.Is(err, ErrValidation) {
		return CodeValidation
	}
	return ""
}
