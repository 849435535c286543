package schedules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

type schedulesService struct {
	config config.Config
	logger *zap.Logger
	client *client.Client
}

func NewScheduleService(cfg config.Config, logger *zap.Logger, c *client.Client) Service {
	return &schedulesService{
		config: cfg,
		logger: logger,
		client: c,
	}
}

// parse accepts standard five-field expressions and descriptors such as
// "@hourly" or "@every 15m".
func parse(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidCron, expr, err)
	}
	return sched, nil
}

func (s *schedulesService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (*client.Schedule, error) {
	sched, err := parse(params.Cron)
	if err != nil {
		return nil, err
	}
	active := params.Active == nil || *params.Active
	data := client.ScheduleCreateInput{
		Name:      params.Name,
		Cron:      params.Cron,
		Active:    &active,
		ProjectID: params.ProjectID,
	}
	if active {
		next := sched.Next(time.Now())
		data.NextRun = &next
	}

	created, err := s.client.Schedule.Create(ctx, client.ScheduleCreateArgs{Data: data})
	if err != nil {
		if errors.Is(err, client.ErrForeignKeyConstraint) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	s.logger.Info("schedule created",
		zap.String("schedule_id", created.ID),
		zap.String("cron", created.Cron),
		zap.Bool("active", created.Active))
	return created, nil
}

// SetActive toggles a schedule. Activation recomputes NextRun from now;
// deactivation clears it.
func (s *schedulesService) SetActive(ctx context.Context, scheduleID string, active bool) (*client.Schedule, error) {
	var updated *client.Schedule
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		current, err := s.load(ctx, tx, scheduleID)
		if err != nil {
			return err
		}
		data := client.ScheduleUpdateInput{Active: &active, NextRun: client.SetNull[time.Time]()}
		if active {
			sched, err := parse(current.Cron)
			if err != nil {
				return err
			}
			data.NextRun = client.SetValue(sched.Next(time.Now()))
		}
		updated, err = tx.Schedule.Update(ctx, client.ScheduleUpdateArgs{
			Where: client.ScheduleWhereUniqueInput{ID: &scheduleID},
			Data:  data,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *schedulesService) Due(ctx context.Context, now time.Time) ([]*client.Schedule, error) {
	due, err := s.client.Schedule.FindMany(ctx, client.ScheduleFindManyArgs{
		Where: &client.ScheduleWhereInput{
			Active:  &client.BoolFilter{Equals: client.Ptr(true)},
			NextRun: &client.DateTimeFilter{Lte: &now},
		},
		OrderBy: client.Orderings[client.ScheduleField]{{Field: client.ScheduleFieldNextRun}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}
	return due, nil
}

func (s *schedulesService) MarkRun(ctx context.Context, scheduleID string, at time.Time) (*client.Schedule, error) {
	var updated *client.Schedule
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		var err error
		updated, err = s.markRun(ctx, tx, scheduleID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *schedulesService) markRun(ctx context.Context, tx *client.Client, scheduleID string, at time.Time) (*client.Schedule, error) {
	current, err := s.load(ctx, tx, scheduleID)
	if err != nil {
		return nil, err
	}
	sched, err := parse(current.Cron)
	if err != nil {
		return nil, err
	}
	return tx.Schedule.Update(ctx, client.ScheduleUpdateArgs{
		Where: client.ScheduleWhereUniqueInput{ID: &scheduleID},
		Data: client.ScheduleUpdateInput{
			LastRun: client.SetValue(at),
			NextRun: client.SetValue(sched.Next(at)),
		},
	})
}

func (s *schedulesService) Dispatch(ctx context.Context, now time.Time) ([]*client.Task, error) {
	due, err := s.Due(ctx, now)
	if err != nil {
		return nil, err
	}
	created := make([]*client.Task, 0, len(due))
	var errs []error
	for _, sched := range due {
		var task *client.Task
		err := s.client.Transaction(ctx, func(tx *client.Client) error {
			var err error
			task, err = tx.Task.Create(ctx, client.TaskCreateArgs{Data: client.TaskCreateInput{
				Title:      sched.Name,
				ProjectID:  sched.ProjectID,
				ScheduleID: &sched.ID,
			}})
			if err != nil {
				return err
			}
			_, err = s.markRun(ctx, tx, sched.ID, now)
			return err
		})
		if err != nil {
			s.logger.Error("failed to dispatch schedule", zap.String("schedule_id", sched.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("schedule %s: %w", sched.ID, err))
			continue
		}
		created = append(created, task)
	}
	if len(created) > 0 {
		s.logger.Info("dispatched scheduled tasks", zap.Int("count", len(created)))
	}
	return created, errors.Join(errs...)
}

func (s *schedulesService) load(ctx context.Context, c *client.Client, scheduleID string) (*client.Schedule, error) {
	sched, err := c.Schedule.FindUnique(ctx, client.ScheduleFindUniqueArgs{Where: client.ScheduleWhereUniqueInput{ID: &scheduleID}})
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	if sched == nil {
		return nil, ErrScheduleNotFound
	}
	return sched, nil
}
