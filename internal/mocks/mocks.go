package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, senderID int, receiverID int, content string, audio *models.Audio) (models.DirectMessage, error) {
	args := m.Called(ctx, senderID, receiverID, content, audio)
	var msg models.DirectMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.DirectMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) History(ctx context.Context, userID int, otherID int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userID, otherID)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Unread(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userID)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.DirectMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.DirectMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.DirectMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID int, editorID int, newContent string) (models.DirectMessage, error) {
	args := m.Called(ctx, messageID, editorID, newContent)
	var msg models.DirectMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.DirectMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int, requesterID int) (models.DirectMessage, error) {
	args := m.Called(ctx, messageID, requesterID)
	var msg models.DirectMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.DirectMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, readerID int, senderID int) ([]int, error) {
	args := m.Called(ctx, readerID, senderID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, ownerID int, name string, description string, memberIDs []int) (models.Group, error) {
	args := m.Called(ctx, ownerID, name, description, memberIDs)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.GroupSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupSummary)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) Members(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	args := m.Called(ctx, groupID)
	var members []models.GroupMember
	if val := args.Get(0); val != nil {
		members = val.([]models.GroupMember)
	}
	return members, args.Error(1)
}

func (m *GroupRepositoryMock) MemberRole(ctx context.Context, groupID int, userID int) (models.Role, error) {
	args := m.Called(ctx, groupID, userID)
	var role models.Role
	if val := args.Get(0); val != nil {
		role = val.(models.Role)
	}
	return role, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) MemberCount(ctx context.Context, groupID int) (int, error) {
	args := m.Called(ctx, groupID)
	return args.Int(0), args.Error(1)
}

func (m *GroupRepositoryMock) AddMember(ctx context.Context, groupID int, userID int) (models.GroupMember, error) {
	args := m.Called(ctx, groupID, userID)
	var member models.GroupMember
	if val := args.Get(0); val != nil {
		member = val.(models.GroupMember)
	}
	return member, args.Error(1)
}

func (m *GroupRepositoryMock) SetRole(ctx context.Context, groupID int, userID int, role models.Role) error {
	args := m.Called(ctx, groupID, userID, role)
	return args.Error(0)
}

func (m *GroupRepositoryMock) RemoveMember(ctx context.Context, groupID int, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) TransferOwnership(ctx context.Context, groupID int, fromID int, toID int) error {
	args := m.Called(ctx, groupID, fromID, toID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

type GroupMessageRepositoryMock struct {
	mock.Mock
}

func (m *GroupMessageRepositoryMock) CreateGroupMessage(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error) {
	args := m.Called(ctx, groupID, senderID, content)
	var msg models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *GroupMessageRepositoryMock) ListGroupMessages(ctx context.Context, groupID int, userID int) ([]models.GroupMessage, error) {
	args := m.Called(ctx, groupID, userID)
	var msgs []models.GroupMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.GroupMessage)
	}
	return msgs, args.Error(1)
}

func (m *GroupMessageRepositoryMock) GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *GroupMessageRepositoryMock) EditGroupMessage(ctx context.Context, messageID int, editorID int, newContent string) (models.GroupMessage, error) {
	args := m.Called(ctx, messageID, editorID, newContent)
	var msg models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *GroupMessageRepositoryMock) AddDeletion(ctx context.Context, messageID int, userID int) (int, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Int(0), args.Error(1)
}

func (m *GroupMessageRepositoryMock) DeleteForAll(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *GroupMessageRepositoryMock) MarkGroupRead(ctx context.Context, groupID int, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.GroupMessageRepository = (*GroupMessageRepositoryMock)(nil)
