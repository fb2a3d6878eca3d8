// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: периодическую очистку лимитера
// репутации от устаревших кулдаунов и дневных счётчиков.
package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Sweeper — то, что умеет чистить устаревшее состояние.
type Sweeper interface {
	Sweep() int
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   Sweeper
	sweepSpec string
}

// NewScheduler создаёт планировщик задач в часовом поясе loc.
func NewScheduler(sweeper Sweeper, sweepSpec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		sweeper:   sweeper,
		sweepSpec: sweepSpec,
	}
}

// Start регистрирует и запускает фоновые задачи.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.sweepSpec, s.runSweep); err != nil {
		return fmt.Errorf("некорректное расписание очистки %q: %w", s.sweepSpec, err)
	}

	s.cron.Start()
	log.WithField("sweep", s.sweepSpec).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) runSweep() {
	removed := s.sweeper.Sweep()
	log.WithField("removed", removed).Info("[CRON] Очистка лимитера репутации")
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
