package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler запускает RegenerationJob по cron выражению.
// Запуски не перекрываются: если прошлый проход еще идет, очередной пропускается.
type Scheduler struct {
	cron   *cron.Cron
	job    *RegenerationJob
	logger Logger

	ctx context.Context
}

// NewScheduler проверяет выражение и регистрирует задачу. loc nil - UTC.
func NewScheduler(job *RegenerationJob, expr string, loc *time.Location, logger Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		job:    job,
		logger: logger,
		ctx:    context.Background(),
	}

	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("jobs: invalid cron expression %q: %w", expr, err)
	}
	return s, nil
}

// Run запускает планировщик и блокируется до отмены ctx, затем дожидается текущего прохода
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("Scheduler: started, next run at %s", s.next())

	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler: stopped")
	return nil
}

func (s *Scheduler) tick() {
	if _, err := s.job.Run(s.ctx); err != nil {
		s.logger.Warn("Scheduler: run finished with error: %v", err)
	}
}

func (s *Scheduler) next() string {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return "never"
	}
	return entries[0].Next.Format(time.RFC3339)
}

// cronLogger адаптер Logger к cron.Logger
type cronLogger struct {
	logger Logger
}

// Info пробуждения cron не логируем
func (l cronLogger) Info(string, ...interface{}) {}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
