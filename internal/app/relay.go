package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
	"github.com/studyhive/studyhive/internal/domain"
)

// Relay forwards an opaque signaling payload to the connection currently
// associated with the target user. No retry, no buffering; the result tells
// the caller whether the peer was reachable at delivery time.
func (o *Orchestrator) Relay(from, to domain.UserID, signal json.RawMessage) core.Delivery {
	res := o.deliverToUser(to, core.EvSignal, core.SignalOut{UserID: from, Signal: signal})
	if res == core.PeerUnreachable {
		log.Debug().Str("module", "app.relay").Str("from", string(from)).
			Str("to", string(to)).Msg("signal dropped, peer unreachable")
	}
	return res
}
