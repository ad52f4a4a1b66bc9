package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
	schedulePort "github.com/clearpath-sec/cloudscan/internal/schedule/port"
	appContext "github.com/clearpath-sec/cloudscan/pkg/context"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
)

// Registry holds the live cron triggers for enabled schedules. It is the
// single place where cron entries are created, replaced and removed, so a
// schedule never fires twice per tick.
type Registry struct {
	cron      *cron.Cron
	entries   map[domain.ScheduleID]cron.EntryID
	scans     scanPort.Service
	schedules schedulePort.Service
	db        *gorm.DB

	mu      sync.Mutex
	running bool
}

func NewRegistry(db *gorm.DB, scans scanPort.Service, schedules schedulePort.Service) *Registry {
	return &Registry{
		cron:      cron.New(),
		entries:   make(map[domain.ScheduleID]cron.EntryID),
		scans:     scans,
		schedules: schedules,
		db:        db,
	}
}

// Start loads all enabled schedules and begins firing them.
func (r *Registry) Start() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	if err := r.ReloadAll(); err != nil {
		return err
	}

	r.cron.Start()
	logger.Info("schedule registry started with %d triggers", len(r.entries))
	return nil
}

// Stop halts the cron runner and waits for running trigger callbacks.
func (r *Registry) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	<-r.cron.Stop().Done()
	logger.Info("schedule registry stopped")
}

// ReloadAll replaces every trigger with the enabled schedules currently in
// the database.
func (r *Registry) ReloadAll() error {
	ctx := r.newContext()

	enabled := true
	schedules, err := r.schedules.ListSchedules(ctx, domain.ScheduleFilter{IsEnabled: &enabled})
	if err != nil {
		return err
	}

	r.mu.Lock()
	for scheduleID, entryID := range r.entries {
		r.cron.Remove(entryID)
		delete(r.entries, scheduleID)
	}
	r.mu.Unlock()

	for _, schedule := range schedules {
		if err := r.AddOrUpdate(schedule); err != nil {
			logger.Error("skipping schedule %d with invalid cron expression %q: %v", schedule.ID, schedule.CronExpr, err)
		}
	}

	return nil
}

// AddOrUpdate registers a trigger for the schedule, replacing any existing
// one.
func (r *Registry) AddOrUpdate(schedule domain.ScheduledScan) error {
	parsed, err := ParseCronExpr(schedule.CronExpr)
	if err != nil {
		return err
	}

	scheduleID := schedule.ID
	userID := schedule.UserID

	r.mu.Lock()
	defer r.mu.Unlock()

	if entryID, ok := r.entries[scheduleID]; ok {
		r.cron.Remove(entryID)
	}

	entryID := r.cron.Schedule(parsed, cron.FuncJob(func() {
		r.fire(scheduleID, userID, parsed)
	}))
	r.entries[scheduleID] = entryID

	return nil
}

// Remove drops the schedule's trigger if one is registered.
func (r *Registry) Remove(scheduleID domain.ScheduleID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entryID, ok := r.entries[scheduleID]; ok {
		r.cron.Remove(entryID)
		delete(r.entries, scheduleID)
	}
}

// TriggerCount reports how many schedules currently have live triggers.
func (r *Registry) TriggerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// fire submits one scan for the schedule. Errors are logged and never stop
// the cron runner; the schedule fires again on its next tick.
func (r *Registry) fire(scheduleID domain.ScheduleID, userID string, parsed cron.Schedule) {
	ctx := r.newContext()

	schedule, err := r.schedules.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		logger.ErrorContext(ctx, "schedule %d fired but could not be loaded, removing trigger: %v", scheduleID, err)
		r.Remove(scheduleID)
		return
	}
	if !schedule.IsEnabled {
		logger.WarnContext(ctx, "schedule %d fired while disabled, removing trigger", scheduleID)
		r.Remove(scheduleID)
		return
	}

	now := time.Now()
	next := parsed.Next(now)
	if err := r.schedules.MarkFired(ctx, scheduleID, now, &next); err != nil {
		logger.ErrorContext(ctx, "failed to record run times for schedule %d: %v", scheduleID, err)
	}

	scanID, err := r.scans.SubmitScan(ctx, scanDomain.Scan{
		UserID:       schedule.UserID,
		CredentialID: schedule.CredentialID,
		PolicyID:     schedule.PolicyID,
		Tool:         schedule.Tool,
		Target:       schedule.Target,
	})
	if err != nil {
		logger.ErrorContext(ctx, "scheduled scan submission failed for schedule %d: %v", scheduleID, err)
		return
	}

	logger.InfoContext(ctx, "schedule %d submitted scan %d", scheduleID, scanID)
}

func (r *Registry) newContext() context.Context {
	return appContext.NewAppContext(context.Background(), appContext.WithDB(r.db, false))
}
