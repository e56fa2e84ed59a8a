package realtime

import (
	"context"
	"encoding/json"

	"messenger-service/internal/models"
	"messenger-service/internal/permissions"
)

func (r *Router) handleJoinGroup(ctx context.Context, conn Conn, data json.RawMessage) error {
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

	r.gw.JoinRoom(req.GroupID, conn)
	conn.Send(models.ServerEvent{Event: models.EvGroupJoined, Data: req.GroupID})
	return nil
}

func (r *Router) handleLeaveGroup(conn Conn, data json.RawMessage) error {
	var req models.GroupRefPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.gw.LeaveRoom(req.GroupID, conn)
	conn.Send(models.ServerEvent{Event: models.EvGroupLeft, Data: req.GroupID})
	return nil
}

func (r *Router) handleAddGroupMember(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.GroupMemberPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	role, err := r.groups.MemberRole(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !permissions.Allows(role, permissions.ActionAddMember) {
		return errPermission("only admins can add members")
	}

	member, err := r.groups.AddMember(sctx, req.GroupID, req.MemberID)
	if err != nil {
		return err
	}

	r.emitAudit(ctx, "INFO", "Group member added", conn)
	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
		Event: models.EvMemberAdded,
		Data:  models.MemberEventPayload{GroupID: req.GroupID, Member: &member, UserID: member.UserID, Role: member.Role},
	})
	r.gw.SendToUser(req.MemberID, models.ServerEvent{Event: models.EvYouWereAdded, Data: models.GroupRefPayload{GroupID: req.GroupID}})
	return nil
}

func (r *Router) handleChangeRole(ctx context.Context, conn Conn, data json.RawMessage, newRole models.Role) error {
	var req models.GroupMemberPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	role, err := r.groups.MemberRole(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	action := permissions.ActionPromoteMember
	if newRole == models.RoleMember {
		action = permissions.ActionDemoteMember
	}
	if !permissions.Allows(role, action) {
		return errPermission("only the group creator can change member roles")
	}

	targetRole, err := r.groups.MemberRole(sctx, req.GroupID, req.MemberID)
	if err != nil {
		return err
	}
	if targetRole == models.RoleOwner {
		return errPermission("ownership changes only via transfer")
	}
	if targetRole == newRole {
		return nil
	}

	if err := r.groups.SetRole(sctx, req.GroupID, req.MemberID, newRole); err != nil {
		return err
	}

	event := models.EvMemberRoleChanged
	if newRole == models.RoleAdmin {
		event = models.EvMemberPromoted
	}
	r.emitAudit(ctx, "INFO", "Group member role changed", conn)
	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
		Event: event,
		Data:  models.MemberEventPayload{GroupID: req.GroupID, UserID: req.MemberID, Role: newRole},
	})
	return nil
}

func (r *Router) handleRemoveGroupMember(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.GroupMemberPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	role, err := r.groups.MemberRole(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}

	if req.MemberID == conn.UserID() {
		// Leaving is self-removal; the owner must transfer first.
		if !permissions.Allows(role, permissions.ActionLeaveGroup) {
			return errPermission("cannot remove the group creator; transfer ownership first")
		}
	} else {
		targetRole, err := r.groups.MemberRole(sctx, req.GroupID, req.MemberID)
		if err != nil {
			return err
		}
		if !permissions.CanRemove(role, targetRole) {
			if targetRole == models.RoleOwner {
				return errPermission("cannot remove the group creator")
			}
			return errPermission("not allowed to remove this member")
		}
	}

	if err := r.groups.RemoveMember(sctx, req.GroupID, req.MemberID); err != nil {
		return err
	}

	r.emitAudit(ctx, "INFO", "Group member removed", conn)
	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
		Event: models.EvMemberRemoved,
		Data:  models.MemberEventPayload{GroupID: req.GroupID, UserID: req.MemberID},
	})
	r.gw.SendToUser(req.MemberID, models.ServerEvent{Event: models.EvYouWereRemoved, Data: models.GroupRefPayload{GroupID: req.GroupID}})
	return nil
}

func (r *Router) handleTransferOwnership(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.TransferOwnershipPayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.NewOwnerID == conn.UserID() {
		return errValidation("cannot transfer ownership to yourself")
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	role, err := r.groups.MemberRole(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !permissions.Allows(role, permissions.ActionTransferOwnership) {
		return errPermission("only the owner can transfer ownership")
	}

	// Old owner drops to admin and the target becomes owner in one
	// transaction; the one-owner invariant holds at every commit point.
	if err := r.groups.TransferOwnership(sctx, req.GroupID, conn.UserID(), req.NewOwnerID); err != nil {
		return err
	}

	r.emitAudit(ctx, "INFO", "Group ownership transferred", conn)
	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{
		Event: models.EvOwnershipTransferred,
		Data:  models.OwnershipTransferredPayload{GroupID: req.GroupID, PreviousOwnerID: conn.UserID(), NewOwnerID: req.NewOwnerID},
	})
	return nil
}

func (r *Router) handleDeleteGroup(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.GroupRefPayload
	if err := decode(data, &req); err != nil {
		return err
	}

	r.groupLocks.Lock(req.GroupID)
	defer r.groupLocks.Unlock(req.GroupID)

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()

	role, err := r.groups.MemberRole(sctx, req.GroupID, conn.UserID())
	if err != nil {
		return err
	}
	if !permissions.Allows(role, permissions.ActionDeleteGroup) {
		return errPermission("only the owner can delete the group")
	}

	if err := r.groups.DeleteGroup(sctx, req.GroupID); err != nil {
		return err
	}

	r.emitAudit(ctx, "INFO", "Group deleted", conn)
	r.gw.BroadcastRoom(req.GroupID, models.ServerEvent{Event: models.EvGroupDeleted, Data: req.GroupID})
	r.gw.CloseRoom(req.GroupID)
	return nil
}
