package converter

import (
	"encoding/json"
	"fmt"

	"github.com/swaggyasy/tff-socket-server/internal/model"
)

// Socket event names. Client frames and server frames share the same
// envelope shape: {"event": <name>, "data": <object>}.
const (
	EventJoinAdminRoom     = "join-admin-room"
	EventJoinUserRoom      = "join-user-room"
	EventOrderStatusUpdate = "order-status-update"
	EventOrderUpdated      = "order-updated"
)

type SocketEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type statusUpdatePayload struct {
	UserID        string `json:"userId"`
	IsAdminUpdate bool   `json:"isAdminUpdate"`
}

// StatusUpdateToModel lifts the routing fields out of the payload and
// keeps the original bytes for verbatim relaying.
func StatusUpdateToModel(data []byte) (model.StatusUpdateEvent, error) {
	var p statusUpdatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return model.StatusUpdateEvent{}, fmt.Errorf("decode status update: %w", err)
	}

	return model.StatusUpdateEvent{
		UserID:        p.UserID,
		IsAdminUpdate: p.IsAdminUpdate,
		Payload:       append(json.RawMessage(nil), data...),
	}, nil
}

// JoinUserRoomToUserID accepts either a bare JSON string or an object
// with a userId field, matching what different client versions send.
func JoinUserRoomToUserID(data []byte) (string, error) {
	var userID string
	if err := json.Unmarshal(data, &userID); err == nil {
		return userID, nil
	}

	var p struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("decode join-user-room: %w", err)
	}

	return p.UserID, nil
}

// OrderUpdatedToFrame wraps the relayed payload in the outbound envelope.
func OrderUpdatedToFrame(event model.StatusUpdateEvent) ([]byte, error) {
	frame, err := json.Marshal(SocketEnvelope{
		Event: EventOrderUpdated,
		Data:  event.Payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order-updated frame: %w", err)
	}

	return frame, nil
}
