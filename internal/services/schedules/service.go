package schedules

import (
	"context"
	"errors"
	"time"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
)

var (
	ErrInvalidCron      = errors.New("invalid cron expression")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrProjectNotFound  = errors.New("project not found")
)

type CreateScheduleParams struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Cron      string `json:"cron"`
	Active    *bool  `json:"active,omitempty"`
}

type Service interface {
	CreateSchedule(ctx context.Context, params CreateScheduleParams) (*client.Schedule, error)
	SetActive(ctx context.Context, scheduleID string, active bool) (*client.Schedule, error)
	Due(ctx context.Context, now time.Time) ([]*client.Schedule, error)
	MarkRun(ctx context.Context, scheduleID string, at time.Time) (*client.Schedule, error)
	// Dispatch creates one task for every schedule due at now and advances
	// the schedule. Each schedule is handled in its own transaction, so one
	// failure does not hold back the rest.
	Dispatch(ctx context.Context, now time.Time) ([]*client.Task, error)
}
