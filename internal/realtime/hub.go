// Package realtime fans notification events out to connected websocket
// sessions. Events arrive over the message broker so every API instance
// sees them regardless of which instance the session is attached to.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/messaging"
	"github.com/smilebright/booking-api/pkg/metrics"
)

// Channel is the broker channel carrying notification envelopes.
const Channel = "notifications"

// Envelope wraps an event with the user it is addressed to.
type Envelope struct {
	UserID uuid.UUID               `json:"user_id"`
	Event  model.NotificationEvent `json:"event"`
}

type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*session]struct{}

	broker  messaging.Broker
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewHub(broker messaging.Broker, log *logger.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*session]struct{}),
		broker:   broker,
		logger:   log.WithComponent("realtime"),
		metrics:  m,
	}
}

// Start subscribes to the notification channel and routes events to
// local sessions until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) error {
	msgs, err := h.broker.Subscribe(ctx, Channel)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-msgs:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal(payload, &env); err != nil {
					h.logger.Error(err, "failed to decode notification envelope")
					continue
				}
				h.deliver(&env)
			}
		}
	}()

	return nil
}

// deliver pushes the event to every live session of the addressed user.
// A user without sessions simply misses the push.
func (h *Hub) deliver(env *Envelope) {
	payload, err := json.Marshal(env.Event)
	if err != nil {
		h.logger.Error(err, "failed to encode notification event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions[env.UserID] {
		select {
		case s.send <- payload:
		default:
			// Slow session, drop the event rather than block the hub.
			h.logger.Warn("dropping event for slow session", "user_id", env.UserID.String())
		}
	}
}

// SessionCount reports the number of live sessions for a user.
func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

func (h *Hub) register(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sessions[s.userID] == nil {
		h.sessions[s.userID] = make(map[*session]struct{})
	}
	h.sessions[s.userID][s] = struct{}{}
	h.metrics.RealtimeSessions.Inc()
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.sessions[s.userID]; ok {
		if _, ok := sessions[s]; ok {
			delete(sessions, s)
			if len(sessions) == 0 {
				delete(h.sessions, s.userID)
			}
			h.metrics.RealtimeSessions.Dec()
		}
	}
}
