package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type broadcastReq struct {
	data  Frame
	reply chan PublishResult
}

// Hub owns the set of open sessions and fans every frame out to all of them,
// the sender included. A single goroutine (Run) applies register, unregister
// and broadcast requests one at a time, so the membership set needs no lock
// and never changes while a broadcast is in progress.
type Hub struct {
	sessions map[SessionID]Session

	register   chan Session
	unregister chan SessionID
	broadcast  chan broadcastReq
	query      chan chan []SessionID

	ctx    context.Context
	cancel context.CancelFunc

	// done is closed once Run stops accepting requests, finished once every
	// session has been closed.
	done     chan struct{}
	finished chan struct{}
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions:   make(map[SessionID]Session),
		register:   make(chan Session),
		unregister: make(chan SessionID),
		broadcast:  make(chan broadcastReq),
		query:      make(chan chan []SessionID),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		finished:   make(chan struct{}),
	}
}

// Run processes hub requests until ctx is cancelled or Shutdown is called,
// then closes every registered session. Callers must start it exactly once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.finished)

	for {
		select {
		case <-ctx.Done():
			h.stop()
			return
		case <-h.ctx.Done():
			h.stop()
			return

		case s := <-h.register:
			h.add(s)

		case sid := <-h.unregister:
			h.remove(sid)

		case req := <-h.broadcast:
			req.reply <- h.fanout(req.data)

		case reply := <-h.query:
			reply <- lo.Keys(h.sessions)
		}
	}
}

// Register makes s eligible for every later broadcast. Once the hub has
// stopped the session is closed instead.
func (h *Hub) Register(s Session) {
	if s == nil {
		log.Warn().Str("module", "core.hub").Msg("nil session registration skipped")
		return
	}
	select {
	case h.register <- s:
	case <-h.done:
		s.Close()
	}
}

// Deregister removes the session; unknown ids are ignored.
func (h *Hub) Deregister(sid SessionID) {
	select {
	case h.unregister <- sid:
	case <-h.done:
	}
}

// Broadcast delivers data to every session registered at the time the request
// is handled. Delivery is best-effort per session.
func (h *Hub) Broadcast(data Frame) PublishResult {
	req := broadcastReq{data: data, reply: make(chan PublishResult, 1)}
	select {
	case h.broadcast <- req:
	case <-h.done:
		return PublishResult{}
	}
	return <-req.reply
}

// Snapshot lists the ids of currently registered sessions in no particular order.
func (h *Hub) Snapshot() []SessionID {
	reply := make(chan []SessionID, 1)
	select {
	case h.query <- reply:
	case <-h.done:
		return nil
	}
	return <-reply
}

func (h *Hub) Count() int {
	return len(h.Snapshot())
}

// Shutdown stops the loop and waits for all sessions to be closed.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Info().Str("module", "core.hub").Msg("hub shutdown requested")
	h.cancel()

	select {
	case <-h.finished:
		log.Info().Str("module", "core.hub").Msg("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Warn().Str("module", "core.hub").Dur("timeout", timeout).Msg("hub shutdown timed out")
		return context.DeadlineExceeded
	}
}

// Done is closed when the hub stops accepting requests.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) add(s Session) {
	sid := s.ID()
	if prev, ok := h.sessions[sid]; ok && prev != s {
		log.Warn().Str("module", "core.hub").Str("sid", string(sid)).Msg("session id reused, replacing handle")
	}
	h.sessions[sid] = s
	log.Info().Str("module", "core.hub").Str("sid", string(sid)).Int("sessions", len(h.sessions)).Msg("session registered")
}

func (h *Hub) remove(sid SessionID) {
	if _, ok := h.sessions[sid]; !ok {
		return
	}
	delete(h.sessions, sid)
	log.Info().Str("module", "core.hub").Str("sid", string(sid)).Int("sessions", len(h.sessions)).Msg("session deregistered")
}

func (h *Hub) fanout(data Frame) PublishResult {
	res := PublishResult{}
	for _, s := range lo.Values(h.sessions) {
		if err := s.TrySend(data); err != nil {
			log.Warn().Err(err).Str("module", "core.hub").Str("sid", string(s.ID())).Msg("delivery failed")
			res.Dropped = append(res.Dropped, DeliveryFailure{Session: s, Err: err})
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.hub").Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (h *Hub) stop() {
	h.cancel()
	close(h.done)
	sessions := lo.Values(h.sessions)
	clear(h.sessions)
	for _, s := range sessions {
		s.Close()
	}
	log.Info().Str("module", "core.hub").Int("closed", len(sessions)).Msg("closed all sessions")
}
