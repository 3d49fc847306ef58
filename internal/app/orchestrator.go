package app

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/rs/zerolog/log"
)

// Orchestrator is the ingestion path between a transport session and the hub.
type Orchestrator struct {
	Hubs   *HubManager
	Policy Policy
	// Strict enables schema validation of inbound messages; otherwise the
	// payload is relayed as received.
	Strict bool
}

func (o *Orchestrator) OnConnect(s core.Session) {
	o.Hubs.GetOrCreate().Register(s)
}

// OnMessage relays data to every session, the sender included.
func (o *Orchestrator) OnMessage(sid core.SessionID, data json.RawMessage) (core.PublishResult, error) {
	if len(data) == 0 {
		return core.PublishResult{}, fmt.Errorf("%w: empty payload", domain.ErrMalformedMessage)
	}
	if o.Strict {
		if _, err := domain.ParseMessage(data); err != nil {
			return core.PublishResult{}, err
		}
	}

	frame, err := core.EncodeEvent(core.EventMessage, data)
	if err != nil {
		return core.PublishResult{}, err
	}
	res := o.Hubs.GetOrCreate().Broadcast(frame)
	log.Debug().Str("module", "app.orch").Str("from", string(sid)).Int("sent_to", res.SendTo).Msg("message relayed")

	if o.Policy == nil {
		return res, nil
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(slow.Session, slow.Err) {
		case KickMember:
			log.Warn().Str("module", "app.orch").Str("sid", string(slow.Session.ID())).Msg("kicking slow session")
			slow.Session.Close()
		case DropFrame, NoAction:
		}
	}
	return res, nil
}

// OnDisconnect deregisters the session. Safe to call more than once.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	hub, ok := o.Hubs.Current()
	if !ok {
		return
	}
	hub.Deregister(sid)
}
