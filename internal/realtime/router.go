package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// DefaultStoreTimeout bounds every persistence call made by a handler. A hung
// store call fails the request instead of stalling the connection forever.
const DefaultStoreTimeout = 5 * time.Second

// Router dispatches inbound realtime events to their handlers.
type Router struct {
	gw        Gateway
	messages  repositories.MessageRepository
	groups    repositories.GroupRepository
	groupMsgs repositories.GroupMessageRepository
	audit     *telemetry.AuditEmitter

	groupLocks   *keyedMutex
	storeTimeout time.Duration
}

// NewRouter constructs a Router.
func NewRouter(gw Gateway, messages repositories.MessageRepository, groups repositories.GroupRepository, groupMsgs repositories.GroupMessageRepository, audit *telemetry.AuditEmitter) *Router {
	return &Router{
		gw:           gw,
		messages:     messages,
		groups:       groups,
		groupMsgs:    groupMsgs,
		audit:        audit,
		groupLocks:   newKeyedMutex(),
		storeTimeout: DefaultStoreTimeout,
	}
}

// SetStoreTimeout overrides the persistence deadline.
func (r *Router) SetStoreTimeout(d time.Duration) {
	if d > 0 {
		r.storeTimeout = d
	}
}

// Dispatch runs one client event to completion. Any error becomes a single
// `error` event to the requesting connection.
func (r *Router) Dispatch(ctx context.Context, conn Conn, event models.ClientEvent) {
	observability.IncWSEvent("realtime", event.Event)

	var err error
	switch event.Event {
	case models.EvRegisterUser:
		err = r.handleRegisterUser(conn, event.Data)
	case models.EvSendMessage:
		err = r.handleSendMessage(ctx, conn, event.Data)
	case models.EvEditMessage:
		err = r.handleEditMessage(ctx, conn, event.Data)
	case models.EvDeleteMessage:
		err = r.handleDeleteMessage(ctx, conn, event.Data)
	case models.EvMarkAsRead:
		err = r.handleMarkAsRead(ctx, conn, event.Data)
	case models.EvTypingStart:
		err = r.handleTyping(conn, event.Data, true)
	case models.EvTypingStop:
		err = r.handleTyping(conn, event.Data, false)
	case models.EvJoinGroup:
		err = r.handleJoinGroup(ctx, conn, event.Data)
	case models.EvLeaveGroup:
		err = r.handleLeaveGroup(conn, event.Data)
	case models.EvSendGroupMessage:
		err = r.handleSendGroupMessage(ctx, conn, event.Data)
	case models.EvUpdateGroupMessage:
		err = r.handleUpdateGroupMessage(ctx, conn, event.Data)
	case models.EvDeleteGroupMsgForMe:
		err = r.handleDeleteGroupMessageForMe(ctx, conn, event.Data)
	case models.EvDeleteGroupMsgForAll:
		err = r.handleDeleteGroupMessageForAll(ctx, conn, event.Data)
	case models.EvMarkGroupMsgAsRead:
		err = r.handleMarkGroupRead(ctx, conn, event.Data)
	case models.EvAddGroupMember:
		err = r.handleAddGroupMember(ctx, conn, event.Data)
	case models.EvPromoteToAdmin:
		err = r.handleChangeRole(ctx, conn, event.Data, models.RoleAdmin)
	case models.EvDemoteToMember:
		err = r.handleChangeRole(ctx, conn, event.Data, models.RoleMember)
	case models.EvRemoveGroupMember:
		err = r.handleRemoveGroupMember(ctx, conn, event.Data)
	case models.EvTransferOwnership:
		err = r.handleTransferOwnership(ctx, conn, event.Data)
	case models.EvDeleteGroup:
		err = r.handleDeleteGroup(ctx, conn, event.Data)
	default:
		err = errValidation("unknown event: " + event.Event)
	}

	if err != nil {
		log.Printf("realtime %s from user %d failed: %v", event.Event, conn.UserID(), err)
		conn.Send(models.ServerEvent{Event: models.EvError, Data: mapError(err)})
	}
}

// Disconnect cleans up after a closed connection and announces the user
// offline if this was still their active connection.
func (r *Router) Disconnect(conn Conn) {
	if r.gw.Unregister(conn) {
		r.gw.BroadcastAll(models.ServerEvent{Event: models.EvUserOffline, Data: conn.UserID()})
	}
}

// storeCtx bounds a persistence call.
func (r *Router) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.storeTimeout)
}

func (r *Router) emitAudit(ctx context.Context, level, text string, conn Conn) {
	if r.audit == nil {
		return
	}
	userID := int64(conn.UserID())
	r.audit.Emit(ctx, level, text, "", &userID)
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errValidation("missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errValidation("malformed event data")
	}
	return nil
}
