package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/StevieDC/dd-voice/pkg/log"
)

// Controller is the part of the session a schedule drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Config struct {
	StartExpr string
	StopExpr  string
	Timeout   time.Duration
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.StartExpr) != "" || strings.TrimSpace(c.StopExpr) != ""
}

// Validate parses both expressions with the standard five field parser.
func (c Config) Validate() error {
	for name, expr := range map[string]string{"start": c.StartExpr, "stop": c.StopExpr} {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", name, expr, err)
		}
	}
	return nil
}

// Scheduler issues start and stop commands on cron schedules, e.g. to
// listen only during a weekly game night.
type Scheduler struct {
	cfg   Config
	ctrl  Controller
	cron  *cron.Cron
	start cron.Schedule
	stop  cron.Schedule
}

func New(cfg Config, ctrl Controller) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	s := &Scheduler{
		cfg:  cfg,
		ctrl: ctrl,
		cron: cron.New(),
	}
	var err error
	if s.start, err = s.add(cfg.StartExpr, "start", ctrl.Start); err != nil {
		return nil, err
	}
	if s.stop, err = s.add(cfg.StopExpr, "stop", ctrl.Stop); err != nil {
		return nil, err
	}
	return s, nil
}

// add schedules fn on expr and returns the parsed schedule, or nil when
// expr is empty.
func (s *Scheduler) add(expr, name string, fn func(context.Context) error) (cron.Schedule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s schedule %q: %w", name, expr, err)
	}
	s.cron.Schedule(sched, cron.FuncJob(s.command(name, fn)))
	return sched, nil
}

func (s *Scheduler) command(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		log.Info("Scheduled %s", name)
		if err := fn(ctx); err != nil {
			log.Error("Scheduled %s failed: %v", name, err)
		}
	}
}

// Run starts the cron runner and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	log.Info("Listening schedule active (start=%q stop=%q)", s.cfg.StartExpr, s.cfg.StopExpr)
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

// Upcoming reports the next start and stop trigger after ref, and the most
// recent ones within the past year.
func (s *Scheduler) Upcoming(ref time.Time) Upcoming {
	var ret Upcoming
	if s.start != nil {
		info := triggerInfo(s.start, ref)
		ret.NextStart, ret.LastStart = timePtr(info.Next), timePtr(info.Last)
	}
	if s.stop != nil {
		info := triggerInfo(s.stop, ref)
		ret.NextStop, ret.LastStop = timePtr(info.Next), timePtr(info.Last)
	}
	return ret
}

type Upcoming struct {
	NextStart *time.Time `json:"next_start,omitempty"`
	NextStop  *time.Time `json:"next_stop,omitempty"`
	LastStart *time.Time `json:"last_start,omitempty"`
	LastStop  *time.Time `json:"last_stop,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
