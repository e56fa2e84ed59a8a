package realtime

import (
	"context"
	"encoding/json"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func (r *Router) handleSendGroupMessage(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.SendGroupMessagePayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.Content == "" {
		return errValidation("message content is empty")
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	member, err := r.groups.IsMember(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !member {
		return errPermission("not a group member")
	}

	msg, err := r.groupMsgs.CreateGroupMessage(sctx, req.GroupID, conn.UserID(), req.Content)
	if err != nil {
		return err
	}

	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{Event: models.EvNewGroupMessage, Data: msg})
	return nil
}

func (r *Router) handleUpdateGroupMessage(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.UpdateGroupMessagePayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.NewContent == "" {
		return errValidation("message content is empty")
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	member, err := r.groups.IsMember(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !member {
		return errPermission("not a group member")
	}

	msg, err := r.groupMsgs.EditGroupMessage(sctx, req.MessageID, conn.UserID(), req.NewContent)
	if err != nil {
		return err
	}

	r.gw.BroadcastRoom(msg.GroupID, models.ServerEvent{Event: models.EvGroupMessageUpdated, Data: msg})
	return nil
}

// handleDeleteGroupMessageForMe appends the requester to the message's
// deletedFor set. Once every current member has deleted it, the soft delete
// upgrades to a hard delete for the whole room.
func (r *Router) handleDeleteGroupMessageForMe(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.GroupMessageRefPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	member, err := r.groups.IsMember(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !member {
		return errPermission("not a group member")
	}

	msg, err := r.groupMsgs.GetGroupMessage(sctx, req.MessageID)
	if err != nil {
		return err
	}
	if msg.GroupID != req.GroupID {
		return errValidation("message does not belong to group")
	}

	deletions, err := r.groupMsgs.AddDeletion(sctx, req.MessageID, conn.UserID())
	if err != nil {
		return err
	}

	memberCount, err := r.groups.MemberCount(sctx, req.GroupID)
	if err != nil {
		return err
	}

	if deletions >= memberCount {
		if err := r.groupMsgs.DeleteForAll(sctx, req.MessageID); err != nil {
			return err
		}
		r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
			Event: models.EvGroupMessageDeleted,
			Data:  models.GroupMessageDeletedPayload{GroupID: req.GroupID, MessageID: req.MessageID, DeletedFor: "all"},
		})
		return nil
	}

	conn.Send(models.ServerEvent{
		Event: models.EvGroupMessageDeleted,
		Data:  models.GroupMessageDeletedPayload{GroupID: req.GroupID, MessageID: req.MessageID, DeletedFor: "me"},
	})
	return nil
}

func (r *Router) handleDeleteGroupMessageForAll(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.GroupMessageRefPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	msg, err := r.groupMsgs.GetGroupMessage(sctx, req.MessageID)
	if err != nil {
		return err
	}
	if msg.GroupID != req.GroupID {
		return errValidation("message does not belong to group")
	}

	// Sender identity or admin/owner role authorizes the hard delete.
	if msg.SenderID != conn.UserID() {
		role, err := r.groups.MemberRole(sctx, req.GroupID, conn.UserID())
		if err != nil {
			return err
		}
		if role != models.RoleAdmin && role != models.RoleOwner {
			return repositories.ErrNotAuthorized
		}
	}

	if err := r.groupMsgs.DeleteForAll(sctx, req.MessageID); err != nil {
		return err
	}

	r.emitAudit(ctx, "INFO", "Group message deleted for all", conn)
	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
		Event: models.EvGroupMessageDeleted,
		Data:  models.GroupMessageDeletedPayload{GroupID: req.GroupID, MessageID: req.MessageID, DeletedFor: "all"},
	})
	return nil
}

func (r *Router) handleMarkGroupRead(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.GroupRefPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	member, err := r.groups.IsMember(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !member {
		return errPermission("not a group member")
	}

	if err := r.groupMsgs.MarkGroupRead(sctx, req.GroupID, conn.UserID()); err != nil {
		return err
	}

	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
		Event: models.EvGroupMessagesRead,
		Data:  models.GroupMessagesReadPayload{GroupID: req.GroupID, ReaderID: conn.UserID()},
	})
	return nil
}
