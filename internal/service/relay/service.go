package relay

import (
	"context"
	"sync"

	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

// Conn is one live persistent-transport endpoint. Send must not block:
// implementations queue the event and report an error when the queue is
// full or the transport is gone.
type Conn interface {
	ID() string
	Send(event model.StatusUpdateEvent) error
}

// service owns the group membership table. All mutation goes through
// Join/JoinAdmin/PublishStatusUpdate/Disconnect; the table is never
// exposed for iteration.
type service struct {
	mu sync.Mutex
	// group name -> connection id -> connection
	groups map[string]map[string]Conn
	// connection id -> set of groups it joined, for disconnect cleanup
	members map[string]map[string]struct{}
}

func NewRelayService() *service {
	return &service{
		groups:  make(map[string]map[string]Conn),
		members: make(map[string]map[string]struct{}),
	}
}

// Join adds conn to the named group. Joining an already-joined group is
// a no-op. A connection may belong to any number of groups at once.
func (svc *service) Join(ctx context.Context, conn Conn, groupID string) {
	if groupID == "" {
		logger.Warn(ctx, "join with empty group id dropped",
			logger.String("conn_id", conn.ID()),
		)
		return
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	g, ok := svc.groups[groupID]
	if !ok {
		g = make(map[string]Conn)
		svc.groups[groupID] = g
	}
	g[conn.ID()] = conn

	m, ok := svc.members[conn.ID()]
	if !ok {
		m = make(map[string]struct{})
		svc.members[conn.ID()] = m
	}
	m[groupID] = struct{}{}

	logger.Info(ctx, "connection joined group",
		logger.String("conn_id", conn.ID()),
		logger.String("group", groupID),
	)
}

func (svc *service) JoinAdmin(ctx context.Context, conn Conn) {
	svc.Join(ctx, conn, model.AdminGroup)
}

// PublishStatusUpdate fans the event out to every current member of its
// resolved target group, in publish order. An unresolvable target or an
// empty group is a silent no-op: delivery is fire-and-forget, there is
// no backlog for late joiners.
func (svc *service) PublishStatusUpdate(ctx context.Context, event model.StatusUpdateEvent) {
	target := event.TargetGroup()
	if target == "" {
		logger.Debug(ctx, "status update without resolvable target dropped")
		return
	}

	// The lock is held across the sends so concurrent publishers cannot
	// interleave within a group; Conn.Send only enqueues, it never
	// blocks on the peer.
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for _, conn := range svc.groups[target] {
		if err := conn.Send(event); err != nil {
			logger.Warn(ctx, "event dropped for slow or closed connection",
				logger.String("conn_id", conn.ID()),
				logger.String("group", target),
				logger.ErrorF(err),
			)
		}
	}
}

// Disconnect removes the connection from every group it joined. Empty
// groups are deleted from the table.
func (svc *service) Disconnect(ctx context.Context, conn Conn) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for groupID := range svc.members[conn.ID()] {
		if g, ok := svc.groups[groupID]; ok {
			delete(g, conn.ID())
			if len(g) == 0 {
				delete(svc.groups, groupID)
			}
		}
	}
	delete(svc.members, conn.ID())

	logger.Info(ctx, "connection disconnected",
		logger.String("conn_id", conn.ID()),
	)
}
