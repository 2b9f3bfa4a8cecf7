package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/server/middleware"
)

const writeTimeout = 10 * time.Second

// EventSource streams the change events of one organization.
// *redis.PubSub and *Broker satisfy this interface.
type EventSource interface {
	Events(ctx context.Context, orgID uuid.UUID) (<-chan domain.ChangeEvent, func(), error)
}

// Hub serves live organization change streams over WebSocket.
type Hub struct {
	events  EventSource
	origins []string
}

// NewHub creates a hub reading from events. origins are the allowed
// cross-origin host patterns of the handshake; empty means same origin only.
func NewHub(events EventSource, origins []string) *Hub {
	return &Hub{events: events, origins: origins}
}

// ServeOrg streams the change events of the caller's organization as JSON
// text messages. SUPER_ADMIN names the organization with ?organization_id=.
// It must be chained after middleware.Auth.
func (h *Hub) ServeOrg(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return
	}

	var requested *uuid.UUID
	if v := r.URL.Query().Get("organization_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "invalid organization_id", http.StatusBadRequest)
			return
		}
		requested = &id
	}
	orgID, err := authz.TargetOrg(p, authz.AnyRole, requested)
	if err != nil {
		http.Error(w, domain.MessageOf(err), middleware.StatusForKind(domain.KindOf(err)))
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		log.Error().Err(err).Msg("ws.Hub.ServeOrg: accept")
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead ends ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	events, stop, err := h.events.Events(ctx, orgID)
	if err != nil {
		log.Error().Err(err).Str("organization_id", orgID.String()).Msg("ws.Hub.ServeOrg: subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer stop()

	log.Debug().Str("organization_id", orgID.String()).Str("principal_id", p.ID.String()).Msg("ws.Hub.ServeOrg: subscribed")

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case ev, evOK := <-events:
			if !evOK {
				_ = conn.Close(websocket.StatusNormalClosure, "stream closed")
				return
			}
			if writeErr := write(ctx, conn, ev); writeErr != nil {
				log.Debug().Err(writeErr).Msg("ws.Hub.ServeOrg: write")
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, ev domain.ChangeEvent) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
