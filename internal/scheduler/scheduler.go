// scheduler.go runs the recurring task loop.
// Schedules come from the config file; each fires through the same
// orchestrator as an HTTP request and lands in the same run history,
// so a nightly validation or weekly benchmark needs no external cron.

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/visionops/yolobridge/internal/args"
	"github.com/visionops/yolobridge/internal/config"
	"github.com/visionops/yolobridge/internal/events"
	"github.com/visionops/yolobridge/internal/history"
	"github.com/visionops/yolobridge/internal/runner"
)

// checkInterval is how often the loop looks for due schedules.
const checkInterval = 30 * time.Second

// entry is one schedule plus its computed next fire time.
type entry struct {
	spec config.Schedule
	next time.Time
}

// Scheduler executes configured schedules through the orchestrator.
type Scheduler struct {
	entries []*entry
	parser  *CronParser
	runner  *runner.Runner
	store   *history.Store
	hub     *events.Hub
	logger  *slog.Logger
	done    chan struct{}
}

// New creates a Scheduler for the given schedules. Every cron
// expression is validated up front; a bad expression fails startup
// rather than silently never firing.
func New(schedules []config.Schedule, r *runner.Runner, store *history.Store, hub *events.Hub, logger *slog.Logger) (*Scheduler, error) {
	parser := NewCronParser()
	now := time.Now()

	entries := make([]*entry, 0, len(schedules))
	for _, s := range schedules {
		next, err := parser.NextRun(s.Cron, now)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q for schedule %q: %w", s.Cron, s.Name, err)
		}
		entries = append(entries, &entry{spec: s, next: next})
	}

	return &Scheduler{
		entries: entries,
		parser:  parser,
		runner:  r,
		store:   store,
		hub:     hub,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Run starts the scheduler loop (blocking). It checks for due
// schedules every 30 seconds. This should be run in a goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	if len(s.entries) == 0 {
		s.logger.Debug("no schedules configured")
		return
	}

	s.logger.Info("scheduler started", slog.Int("schedules", len(s.entries)))
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return
		case now := <-ticker.C:
			s.processDue(ctx, now)
		}
	}
}

// Shutdown waits for the loop to exit after its context is cancelled.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processDue executes every schedule whose fire time has passed and
// advances its next fire time.
func (s *Scheduler) processDue(ctx context.Context, now time.Time) {
	for _, e := range s.entries {
		if e.next.After(now) {
			continue
		}
		s.execute(ctx, e)

		next, err := s.parser.NextRun(e.spec.Cron, now)
		if err != nil {
			// Validated at startup; should not happen
			s.logger.Error("failed to advance schedule",
				slog.String("schedule", e.spec.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		e.next = next
	}
}

// execute runs one scheduled task and records the outcome.
func (s *Scheduler) execute(ctx context.Context, e *entry) {
	runID := uuid.NewString()
	schedLogger := s.logger.With(
		slog.String("schedule", e.spec.Name),
		slog.String("task", e.spec.Task),
		slog.String("run_id", runID),
	)
	schedLogger.Info("executing schedule")

	s.hub.Broadcast(events.Started(runID, e.spec.Task))

	res := s.runner.Execute(ctx, e.spec.Task, buildParams(e.spec.Params))

	rec := &history.Record{
		RunID:      runID,
		Task:       e.spec.Task,
		Command:    res.Command,
		ReturnCode: res.ReturnCode,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		Metrics:    res.Metrics,
		Artifacts:  res.Artifacts,
		Success:    res.Success,
		Timestamp:  time.Now().UTC(),
		Source:     "schedule",
	}
	if err := s.store.Put(rec); err != nil {
		schedLogger.Error("failed to record scheduled run", slog.String("error", err.Error()))
	}

	s.hub.Broadcast(events.Completed(runID, e.spec.Task, res.Success))

	schedLogger.Info("schedule completed",
		slog.Int("exit_code", res.ReturnCode),
		slog.Bool("success", res.Success),
	)
}

// buildParams converts a config params map into an ordered parameter
// set. YAML maps carry no order, so keys are sorted for deterministic
// argument emission. A nested "extra_args" map becomes the key=value
// extra section, matching the HTTP request shape.
func buildParams(params map[string]any) *args.ParameterSet {
	ps := &args.ParameterSet{}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "extra_args" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ps.Set(k, params[k])
	}

	if extra, ok := params["extra_args"].(map[string]any); ok {
		extraKeys := make([]string, 0, len(extra))
		for k := range extra {
			extraKeys = append(extraKeys, k)
		}
		sort.Strings(extraKeys)
		for _, k := range extraKeys {
			ps.SetExtra(k, extra[k])
		}
	}

	return ps
}
