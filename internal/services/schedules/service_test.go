package schedules_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/services/schedules"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/testutils"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

func setupService(t *testing.T) (schedules.Service, *client.Client) {
	t.Helper()
	c := testutils.SetupTestClient(t)
	return schedules.NewScheduleService(testutils.GetTestConfig(), zaptest.NewLogger(t), c), c
}

func TestCreateSchedule(t *testing.T) {
	svc, c := setupService(t)
	ctx := context.Background()
	p := testutils.CreateTestProject(t, c, "crawler")

	before := time.Now()
	sched, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "hourly crawl", Cron: "0 * * * *"})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	if !sched.Active || !sched.NextRun.Valid {
		t.Fatalf("Expected an active schedule with NextRun, got %+v", sched)
	}
	if !sched.NextRun.Time.After(before) || sched.NextRun.Time.After(before.Add(time.Hour)) {
		t.Errorf("Expected NextRun within the next hour, got %v", sched.NextRun.Time)
	}

	paused, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "paused", Cron: "@daily", Active: client.Ptr(false)})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	if paused.Active || paused.NextRun.Valid {
		t.Errorf("Expected inactive schedule without NextRun, got %+v", paused)
	}

	_, err = svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "broken", Cron: "every tuesday"})
	if !errors.Is(err, schedules.ErrInvalidCron) {
		t.Errorf("Expected ErrInvalidCron, got %v", err)
	}
	_, err = svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: "missing", Name: "lost", Cron: "@hourly"})
	if !errors.Is(err, schedules.ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestSetActive(t *testing.T) {
	svc, c := setupService(t)
	ctx := context.Background()
	p := testutils.CreateTestProject(t, c, "crawler")
	sched, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "crawl", Cron: "@every 30m"})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	off, err := svc.SetActive(ctx, sched.ID, false)
	if err != nil {
		t.Fatalf("SetActive(false) failed: %v", err)
	}
	if off.Active || off.NextRun.Valid {
		t.Errorf("Expected deactivation to clear NextRun, got %+v", off)
	}

	on, err := svc.SetActive(ctx, sched.ID, true)
	if err != nil {
		t.Fatalf("SetActive(true) failed: %v", err)
	}
	if !on.Active || !on.NextRun.Valid {
		t.Errorf("Expected activation to schedule the next run, got %+v", on)
	}

	_, err = svc.SetActive(ctx, "missing", true)
	if !errors.Is(err, schedules.ErrScheduleNotFound) {
		t.Errorf("Expected ErrScheduleNotFound, got %v", err)
	}
}

func TestMarkRun(t *testing.T) {
	svc, c := setupService(t)
	ctx := context.Background()
	p := testutils.CreateTestProject(t, c, "crawler")
	sched, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "crawl", Cron: "0 * * * *"})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	at := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	ran, err := svc.MarkRun(ctx, sched.ID, at)
	if err != nil {
		t.Fatalf("MarkRun failed: %v", err)
	}
	if !ran.LastRun.Valid || !ran.LastRun.Time.Equal(at) {
		t.Errorf("Expected LastRun %v, got %v", at, ran.LastRun.Time)
	}
	want := time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC)
	if !ran.NextRun.Valid || !ran.NextRun.Time.Equal(want) {
		t.Errorf("Expected NextRun %v, got %v", want, ran.NextRun.Time)
	}

	_, err = svc.MarkRun(ctx, "missing", at)
	if !errors.Is(err, schedules.ErrScheduleNotFound) {
		t.Errorf("Expected ErrScheduleNotFound, got %v", err)
	}
}

func TestDueAndDispatch(t *testing.T) {
	svc, c := setupService(t)
	ctx := context.Background()
	p := testutils.CreateTestProject(t, c, "crawler")
	hourly, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "hourly crawl", Cron: "0 * * * *"})
	if err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	if _, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "yearly", Cron: "@yearly"}); err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}
	if _, err := svc.CreateSchedule(ctx, schedules.CreateScheduleParams{ProjectID: p.ID, Name: "off", Cron: "* * * * *", Active: client.Ptr(false)}); err != nil {
		t.Fatalf("CreateSchedule failed: %v", err)
	}

	due, err := svc.Due(ctx, time.Now())
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected nothing due yet, got %d schedules", len(due))
	}

	later := time.Now().Add(2 * time.Hour)
	due, err = svc.Due(ctx, later)
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != hourly.ID {
		t.Fatalf("Expected only the hourly schedule to be due, got %d", len(due))
	}

	created, err := svc.Dispatch(ctx, later)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("Expected 1 dispatched task, got %d", len(created))
	}
	task := created[0]
	if task.Title != "hourly crawl" || task.ProjectID != p.ID || task.ScheduleID == nil || *task.ScheduleID != hourly.ID {
		t.Errorf("Unexpected dispatched task %+v", task)
	}

	after, err := c.Schedule.FindUniqueOrThrow(ctx, client.ScheduleFindUniqueArgs{
		Where:   client.ScheduleWhereUniqueInput{ID: &hourly.ID},
		Include: &client.ScheduleInclude{Tasks: &client.TaskFindManyArgs{}},
	})
	if err != nil {
		t.Fatalf("FindUniqueOrThrow failed: %v", err)
	}
	if !after.LastRun.Valid || !after.NextRun.Time.After(later) {
		t.Errorf("Expected the run to be recorded and NextRun advanced past %v, got %+v", later, after)
	}
	if len(after.Tasks) != 1 {
		t.Errorf("Expected the schedule to own 1 task, got %d", len(after.Tasks))
	}

	again, err := svc.Dispatch(ctx, later)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected a second dispatch at the same instant to do nothing, got %d tasks", len(again))
	}
}

func TestScheduler(t *testing.T) {
	svc, _ := setupService(t)
	logger := zaptest.NewLogger(t)

	_, err := schedules.NewScheduler(config.SchedulerConfig{Enabled: true, Interval: "whenever"}, svc, logger)
	if err == nil {
		t.Fatal("Expected an invalid interval to be rejected")
	}

	s, err := schedules.NewScheduler(config.SchedulerConfig{Enabled: true, Interval: "@every 1h"}, svc, logger)
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
