package realtime

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

func TestJoinGroupSubscribesMember(t *testing.T) {
	f := newRouterFixture()
	conn := newFakeConn(1)
	f.gw.connect(conn)

	f.groups.On("IsMember", mock.Anything, 7, 1).Return(true, nil).Once()

	dispatch(t, f, conn, models.EvJoinGroup, models.GroupRefPayload{GroupID: 7})

	require.Equal(t, models.EvGroupJoined, conn.lastEvent(t).Event)
	f.gw.BroadcastRoom(7, models.ServerEvent{Event: "probe"})
	require.Equal(t, "probe", conn.lastEvent(t).Event)
}

func TestJoinGroupNonMemberDenied(t *testing.T) {
	f := newRouterFixture()
	conn := newFakeConn(9)
	f.gw.connect(conn)

	f.groups.On("IsMember", mock.Anything, 7, 9).Return(false, nil).Once()

	dispatch(t, f, conn, models.EvJoinGroup, models.GroupRefPayload{GroupID: 7})

	last := conn.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
}

func TestAddGroupMemberByAdmin(t *testing.T) {
	f := newRouterFixture()
	admin := newFakeConn(2)
	newcomer := newFakeConn(5)
	f.gw.connect(admin)
	f.gw.connect(newcomer)
	f.gw.JoinRoom(7, admin)

	added := models.GroupMember{GroupID: 7, UserID: 5, Role: models.RoleMember}
	f.groups.On("MemberRole", mock.Anything, 7, 2).Return(models.RoleAdmin, nil).Once()
	f.groups.On("AddMember", mock.Anything, 7, 5).Return(added, nil).Once()

	dispatch(t, f, admin, models.EvAddGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 5})

	require.Equal(t, models.EvMemberAdded, admin.lastEvent(t).Event)
	require.Equal(t, models.EvYouWereAdded, newcomer.lastEvent(t).Event)
	require.Equal(t, models.GroupRefPayload{GroupID: 7}, newcomer.lastEvent(t).Data)
	f.groups.AssertExpectations(t)
}

func TestAddGroupMemberByPlainMemberDenied(t *testing.T) {
	f := newRouterFixture()
	member := newFakeConn(3)
	f.gw.connect(member)

	f.groups.On("MemberRole", mock.Anything, 7, 3).Return(models.RoleMember, nil).Once()

	dispatch(t, f, member, models.EvAddGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 5})

	last := member.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
	f.groups.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddGroupMemberAlreadyMember(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()
	f.groups.On("AddMember", mock.Anything, 7, 5).Return(models.GroupMember{}, repositories.ErrAlreadyMember).Once()

	dispatch(t, f, owner, models.EvAddGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 5})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodeValidation, last.Data.(models.ErrorPayload).Code)
}

func TestPromoteToAdminByOwner(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)
	f.gw.JoinRoom(7, owner)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()
	f.groups.On("MemberRole", mock.Anything, 7, 3).Return(models.RoleMember, nil).Once()
	f.groups.On("SetRole", mock.Anything, 7, 3, models.RoleAdmin).Return(nil).Once()

	dispatch(t, f, owner, models.EvPromoteToAdmin, models.GroupMemberPayload{GroupID: 7, MemberID: 3})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvMemberPromoted, last.Event)
	require.Equal(t, models.MemberEventPayload{GroupID: 7, UserID: 3, Role: models.RoleAdmin}, last.Data)
	f.groups.AssertExpectations(t)
}

func TestPromoteByAdminDenied(t *testing.T) {
	f := newRouterFixture()
	admin := newFakeConn(2)
	f.gw.connect(admin)

	f.groups.On("MemberRole", mock.Anything, 7, 2).Return(models.RoleAdmin, nil).Once()

	dispatch(t, f, admin, models.EvPromoteToAdmin, models.GroupMemberPayload{GroupID: 7, MemberID: 3})

	last := admin.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
	f.groups.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDemoteOwnerRejected(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()
	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil)

	dispatch(t, f, owner, models.EvDemoteToMember, models.GroupMemberPayload{GroupID: 7, MemberID: 1})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
}

func TestRemoveMemberByAdmin(t *testing.T) {
	f := newRouterFixture()
	admin := newFakeConn(2)
	target := newFakeConn(3)
	f.gw.connect(admin)
	f.gw.connect(target)
	f.gw.JoinRoom(7, admin)
	f.gw.JoinRoom(7, target)

	f.groups.On("MemberRole", mock.Anything, 7, 2).Return(models.RoleAdmin, nil).Once()
	f.groups.On("MemberRole", mock.Anything, 7, 3).Return(models.RoleMember, nil).Once()
	f.groups.On("RemoveMember", mock.Anything, 7, 3).Return(nil).Once()

	dispatch(t, f, admin, models.EvRemoveGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 3})

	require.Equal(t, models.EvMemberRemoved, admin.lastEvent(t).Event)
	require.Equal(t, models.EvYouWereRemoved, target.lastEvent(t).Event)
	f.groups.AssertExpectations(t)
}

func TestAdminCannotRemoveAdmin(t *testing.T) {
	f := newRouterFixture()
	admin := newFakeConn(2)
	f.gw.connect(admin)

	f.groups.On("MemberRole", mock.Anything, 7, 2).Return(models.RoleAdmin, nil).Once()
	f.groups.On("MemberRole", mock.Anything, 7, 4).Return(models.RoleAdmin, nil).Once()

	dispatch(t, f, admin, models.EvRemoveGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 4})

	last := admin.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
	f.groups.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestNobodyRemovesOwner(t *testing.T) {
	f := newRouterFixture()
	admin := newFakeConn(2)
	f.gw.connect(admin)

	f.groups.On("MemberRole", mock.Anything, 7, 2).Return(models.RoleAdmin, nil).Once()
	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()

	dispatch(t, f, admin, models.EvRemoveGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 1})

	last := admin.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
}

func TestLeaveGroupAsSelfRemoval(t *testing.T) {
	f := newRouterFixture()
	member := newFakeConn(3)
	f.gw.connect(member)
	f.gw.JoinRoom(7, member)

	f.groups.On("MemberRole", mock.Anything, 7, 3).Return(models.RoleMember, nil).Once()
	f.groups.On("RemoveMember", mock.Anything, 7, 3).Return(nil).Once()

	dispatch(t, f, member, models.EvRemoveGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 3})

	require.Equal(t, models.EvYouWereRemoved, member.lastEvent(t).Event)
	f.groups.AssertExpectations(t)
}

func TestOwnerCannotLeaveWithoutTransfer(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()

	dispatch(t, f, owner, models.EvRemoveGroupMember, models.GroupMemberPayload{GroupID: 7, MemberID: 1})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
	f.groups.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransferOwnership(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)
	f.gw.JoinRoom(7, owner)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()
	f.groups.On("TransferOwnership", mock.Anything, 7, 1, 3).Return(nil).Once()

	dispatch(t, f, owner, models.EvTransferOwnership, models.TransferOwnershipPayload{GroupID: 7, NewOwnerID: 3})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvOwnershipTransferred, last.Event)
	require.Equal(t, models.OwnershipTransferredPayload{GroupID: 7, PreviousOwnerID: 1, NewOwnerID: 3}, last.Data)
	f.groups.AssertExpectations(t)
}

func TestTransferOwnershipToSelfRejected(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)

	dispatch(t, f, owner, models.EvTransferOwnership, models.TransferOwnershipPayload{GroupID: 7, NewOwnerID: 1})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodeValidation, last.Data.(models.ErrorPayload).Code)
}

func TestTransferOwnershipToNonMember(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	f.gw.connect(owner)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()
	f.groups.On("TransferOwnership", mock.Anything, 7, 1, 9).Return(repositories.ErrNotMember).Once()

	dispatch(t, f, owner, models.EvTransferOwnership, models.TransferOwnershipPayload{GroupID: 7, NewOwnerID: 9})

	last := owner.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodeNotFound, last.Data.(models.ErrorPayload).Code)
}

func TestDeleteGroupByOwnerClosesRoom(t *testing.T) {
	f := newRouterFixture()
	owner := newFakeConn(1)
	member := newFakeConn(3)
	f.gw.connect(owner)
	f.gw.connect(member)
	f.gw.JoinRoom(7, owner)
	f.gw.JoinRoom(7, member)

	f.groups.On("MemberRole", mock.Anything, 7, 1).Return(models.RoleOwner, nil).Once()
	f.groups.On("DeleteGroup", mock.Anything, 7).Return(nil).Once()

	dispatch(t, f, owner, models.EvDeleteGroup, models.GroupRefPayload{GroupID: 7})

	require.Equal(t, models.EvGroupDeleted, member.lastEvent(t).Event)
	require.Equal(t, []int{7}, f.gw.closed)
	f.groups.AssertExpectations(t)
}

func TestDeleteGroupByAdminDenied(t *testing.T) {
	f := newRouterFixture()
	admin := newFakeConn(2)
	f.gw.connect(admin)

	f.groups.On("MemberRole", mock.Anything, 7, 2).Return(models.RoleAdmin, nil).Once()

	dispatch(t, f, admin, models.EvDeleteGroup, models.GroupRefPayload{GroupID: 7})

	last := admin.lastEvent(t)
	require.Equal(t, models.EvError, last.Event)
	require.Equal(t, CodePermissionDenied, last.Data.(models.ErrorPayload).Code)
	f.groups.AssertNotCalled(t, "DeleteGroup", mock.Anything, mock.Anything)
}
