package app

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/core"
	"github.com/rs/zerolog/log"
)

// HubManager is the process-wide owner of the relay hub. The hub is created
// and started lazily on first use, exactly once; Shutdown tears it down and
// closes every session.
type HubManager struct {
	ctx context.Context

	mu  sync.RWMutex
	hub *core.Hub
}

func NewHubManager(ctx context.Context) *HubManager {
	return &HubManager{ctx: ctx}
}

func (m *HubManager) GetOrCreate() *core.Hub {
	m.mu.RLock()
	hub := m.hub
	m.mu.RUnlock()
	if hub != nil {
		return hub
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hub != nil {
		return m.hub
	}
	m.hub = core.NewHub()
	go m.hub.Run(m.ctx)
	log.Info().Str("module", "app.hubs").Msg("hub started")
	return m.hub
}

// Current returns the hub if it has been created.
func (m *HubManager) Current() (*core.Hub, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hub, m.hub != nil
}

func (m *HubManager) Shutdown(timeout time.Duration) error {
	hub, ok := m.Current()
	if !ok {
		return nil
	}
	return hub.Shutdown(timeout)
}
