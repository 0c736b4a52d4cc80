package survey

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// periodicSaveTimeout bounds one scheduled save, including durable store I/O.
const periodicSaveTimeout = 10 * time.Second

// Autosaver runs PeriodicSave for every registered session on a fixed interval.
type Autosaver struct {
	cron     *cron.Cron
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
	stopped bool
}

func NewAutosaver(interval time.Duration, logger *zap.Logger) *Autosaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		interval: interval,
		logger:   logger,
		entries:  make(map[string]cron.EntryID),
	}
}

func (a *Autosaver) Start() {
	a.cron.Start()
}

// Stop halts the timer and waits for running saves to finish.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.mu.Unlock()

	<-a.cron.Stop().Done()
}

// Add schedules a session. Re-adding the same client replaces its entry.
func (a *Autosaver) Add(s *Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return fmt.Errorf("autosaver stopped")
	}
	if id, ok := a.entries[s.ClientID()]; ok {
		a.cron.Remove(id)
	}
	id, err := a.cron.AddFunc(fmt.Sprintf("@every %s", a.interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), periodicSaveTimeout)
		defer cancel()
		if _, err := s.PeriodicSave(ctx); err != nil {
			a.logger.Warn("periodic auto-save failed", zap.String("client", s.ClientID()), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule auto-save: %w", err)
	}
	a.entries[s.ClientID()] = id
	return nil
}

// Remove cancels a session's periodic save.
func (a *Autosaver) Remove(clientID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.entries[clientID]; ok {
		a.cron.Remove(id)
		delete(a.entries, clientID)
	}
}

func (a *Autosaver) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}
