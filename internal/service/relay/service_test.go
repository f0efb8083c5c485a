package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type fakeConn struct {
	id     string
	sendFn func(event model.StatusUpdateEvent) error

	received []model.StatusUpdateEvent
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event model.StatusUpdateEvent) error {
	if c.sendFn != nil {
		if err := c.sendFn(event); err != nil {
			return err
		}
	}
	c.received = append(c.received, event)
	return nil
}

func newEvent(userID string, isAdmin bool) model.StatusUpdateEvent {
	payload := fmt.Sprintf(`{"userId":%q,"isAdminUpdate":%t,"status":"SHIPPED"}`, userID, isAdmin)
	return model.StatusUpdateEvent{
		UserID:        userID,
		IsAdminUpdate: isAdmin,
		Payload:       json.RawMessage(payload),
	}
}

func TestService_PublishStatusUpdate_Targeting(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	tests := []struct {
		name  string
		event model.StatusUpdateEvent

		wantAdmin bool
		wantUser  bool
	}{
		{
			name:      "admin update reaches only the admin group",
			event:     newEvent("u1", true),
			wantAdmin: true,
			wantUser:  false,
		},
		{
			name:      "user update reaches only the user group",
			event:     newEvent("u1", false),
			wantAdmin: false,
			wantUser:  true,
		},
		{
			name:      "unresolvable target is dropped silently",
			event:     newEvent("", false),
			wantAdmin: false,
			wantUser:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sut := NewRelayService()
			admin := &fakeConn{id: "admin-conn"}
			user := &fakeConn{id: "user-conn"}

			sut.JoinAdmin(ctx, admin)
			sut.Join(ctx, user, "u1")

			sut.PublishStatusUpdate(ctx, tt.event)

			require.Equal(t, tt.wantAdmin, len(admin.received) == 1)
			require.Equal(t, tt.wantUser, len(user.received) == 1)
		})
	}
}

func TestService_PublishStatusUpdate_Order(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()
	conn := &fakeConn{id: "c1"}
	sut.Join(ctx, conn, "u1")

	const n = 50
	for i := 0; i < n; i++ {
		event := newEvent("u1", false)
		event.Payload = json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i))
		sut.PublishStatusUpdate(ctx, event)
	}

	require.Len(t, conn.received, n)
	for i, event := range conn.received {
		require.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, i), string(event.Payload))
	}
}

func TestService_Join_Idempotent(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()
	conn := &fakeConn{id: "c1"}

	sut.Join(ctx, conn, "u1")
	sut.Join(ctx, conn, "u1")

	sut.PublishStatusUpdate(ctx, newEvent("u1", false))

	require.Len(t, conn.received, 1, "double join must not double deliveries")
}

func TestService_Join_MultipleGroups(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()
	conn := &fakeConn{id: "c1"}

	// Nothing prevents one connection from observing both audiences.
	sut.JoinAdmin(ctx, conn)
	sut.Join(ctx, conn, "u1")

	sut.PublishStatusUpdate(ctx, newEvent("u1", true))
	sut.PublishStatusUpdate(ctx, newEvent("u1", false))

	require.Len(t, conn.received, 2)
}

func TestService_Join_EmptyGroupID(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()
	conn := &fakeConn{id: "c1"}

	sut.Join(ctx, conn, "")

	// The empty group name must not become a reachable target.
	sut.PublishStatusUpdate(ctx, newEvent("", false))
	require.Empty(t, conn.received)
}

func TestService_Disconnect(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()
	leaving := &fakeConn{id: "c1"}
	staying := &fakeConn{id: "c2"}

	sut.JoinAdmin(ctx, leaving)
	sut.Join(ctx, leaving, "u1")
	sut.Join(ctx, staying, "u1")

	sut.Disconnect(ctx, leaving)

	sut.PublishStatusUpdate(ctx, newEvent("u1", true))
	sut.PublishStatusUpdate(ctx, newEvent("u1", false))

	require.Empty(t, leaving.received, "disconnected connection must not receive anything")
	require.Len(t, staying.received, 1, "remaining member still receives user updates")
}

func TestService_PublishStatusUpdate_EmptyGroupIsNoOp(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()

	// No members anywhere: both publishes must be silent no-ops.
	sut.PublishStatusUpdate(ctx, newEvent("ghost", false))
	sut.PublishStatusUpdate(ctx, newEvent("", true))
}

func TestService_PublishStatusUpdate_SendErrorDoesNotStopFanout(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	sut := NewRelayService()
	broken := &fakeConn{
		id: "broken",
		sendFn: func(model.StatusUpdateEvent) error {
			return errors.New("queue full")
		},
	}
	healthy := &fakeConn{id: "healthy"}

	sut.Join(ctx, broken, "u1")
	sut.Join(ctx, healthy, "u1")

	sut.PublishStatusUpdate(ctx, newEvent("u1", false))

	require.Empty(t, broken.received)
	require.Len(t, healthy.received, 1)
}
