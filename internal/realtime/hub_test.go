package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilebright/booking-api/internal/model"
	"github.com/smilebright/booking-api/pkg/logger"
	"github.com/smilebright/booking-api/pkg/messaging/memory"
	"github.com/smilebright/booking-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("realtime_test")

func newTestHub(t *testing.T) (*Hub, *memory.Broker, context.CancelFunc) {
	t.Helper()

	broker := memory.NewBroker()
	hub := NewHub(broker, logger.NewLogger(nil), testMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hub.Start(ctx))

	t.Cleanup(func() {
		cancel()
		broker.Close()
	})
	return hub, broker, cancel
}

func dialTestSession(t *testing.T, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.ServeConn(conn, userID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Wait for the session to register with the hub.
	deadline := time.Now().Add(time.Second)
	for hub.SessionCount(userID) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.Equal(t, 1, hub.SessionCount(userID))

	return conn
}

func TestHub_DeliversEventToOwnerSession(t *testing.T) {
	hub, broker, _ := newTestHub(t)

	userID := uuid.New()
	conn := dialTestSession(t, hub, userID)

	apptID := uuid.New()
	err := broker.Publish(context.Background(), Channel, Envelope{
		UserID: userID,
		Event: model.NotificationEvent{
			Type:          model.NotificationTypeBookingStatus,
			Title:         "Appointment Confirmed",
			Message:       "Your appointment was confirmed",
			AppointmentID: &apptID,
			Timestamp:     time.Now(),
		},
	})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	body := string(payload)
	assert.Contains(t, body, `"type":"booking_status"`)
	assert.Contains(t, body, `"title":"Appointment Confirmed"`)
	assert.Contains(t, body, `"appointmentId":"`+apptID.String()+`"`)
}

func TestHub_DoesNotDeliverToOtherUsers(t *testing.T) {
	hub, broker, _ := newTestHub(t)

	conn := dialTestSession(t, hub, uuid.New())

	err := broker.Publish(context.Background(), Channel, Envelope{
		UserID: uuid.New(),
		Event: model.NotificationEvent{
			Type:      model.NotificationTypeMessageReply,
			Title:     "New Reply",
			Message:   "hello",
			Timestamp: time.Now(),
		},
	})
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_SessionCountDropsOnDisconnect(t *testing.T) {
	hub, _, _ := newTestHub(t)

	userID := uuid.New()
	conn := dialTestSession(t, hub, userID)
	conn.Close()

	deadline := time.Now().Add(time.Second)
	for hub.SessionCount(userID) != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.SessionCount(userID))
}
