package tasks

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/homesite/internal/logging"
)

const (
	publishSpec = "@every 1m"
	pruneSpec   = "@daily"
)

// BlogJobs 是调度器驱动的博客维护任务。
type BlogJobs interface {
	PublishDue(now time.Time) (int, error)
	PruneRevisions() (int, error)
}

// Scheduler 定时发布排期文章并清理超限修订。
type Scheduler struct {
	cron   *cron.Cron
	jobs   BlogJobs
	logger *zap.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewScheduler 构造调度器，尚未启动。
func NewScheduler(jobs BlogJobs) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		jobs:   jobs,
		logger: logging.WithComponent("scheduler"),
		now:    time.Now,
	}
}

// Start 注册任务并启动调度。
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cron.AddFunc(publishSpec, recoveryWrapper(s.logger, "publish_due", s.PublishDue)); err != nil {
		return fmt.Errorf("schedule publish job: %w", err)
	}
	if _, err := s.cron.AddFunc(pruneSpec, recoveryWrapper(s.logger, "prune_revisions", s.PruneRevisions)); err != nil {
		return fmt.Errorf("schedule prune job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop 停止调度并等待运行中的任务结束。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// PublishDue 发布所有到期的排期文章。
func (s *Scheduler) PublishDue() {
	count, err := s.jobs.PublishDue(s.now())
	if err != nil {
		s.logger.Error("publish due posts failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("published scheduled posts", zap.Int("count", count))
	}
}

// PruneRevisions 清理超过保留上限的修订。
func (s *Scheduler) PruneRevisions() {
	removed, err := s.jobs.PruneRevisions()
	if err != nil {
		s.logger.Error("revision prune sweep failed", zap.Int("removed", removed), zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("pruned revisions", zap.Int("removed", removed))
	}
}

func recoveryWrapper(logger *zap.Logger, name string, job func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("scheduled job panicked",
					zap.String("job", name),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		job()
	}
}
