package models

import "encoding/json"

// Client-to-server event names.
const (
	EvRegisterUser         = "registerUser"
	EvSendMessage          = "sendMessage"
	EvEditMessage          = "editMessage"
	EvDeleteMessage        = "deleteMessage"
	EvMarkAsRead           = "markAsRead"
	EvTypingStart          = "typing-start"
	EvTypingStop           = "typing-stop"
	EvJoinGroup            = "joinGroup"
	EvLeaveGroup           = "leaveGroup"
	EvSendGroupMessage     = "sendGroupMessage"
	EvUpdateGroupMessage   = "updateGroupMessage"
	EvDeleteGroupMsgForMe  = "deleteGroupMessageForMe"
	EvDeleteGroupMsgForAll = "deleteGroupMessageForEveryone"
	EvMarkGroupMsgAsRead   = "markGroupMessageAsRead"
	EvAddGroupMember       = "addGroupMember"
	EvPromoteToAdmin       = "promoteToAdmin"
	EvDemoteToMember       = "demoteToMember"
	EvRemoveGroupMember    = "removeGroupMember"
	EvTransferOwnership    = "transferOwnership"
	EvDeleteGroup          = "deleteGroup"
)

// Server-to-client event names.
const (
	EvUserOnline             = "userOnline"
	EvUserOffline            = "userOffline"
	EvReceiveMessage         = "receiveMessage"
	EvNewMessageNotification = "newMessageNotification"
	EvMessageEdited          = "messageEdited"
	EvMessageDeleted         = "messageDeleted"
	EvMessagesRead           = "messagesRead"
	EvTypingServer           = "typing-server"
	EvGroupJoined            = "groupJoined"
	EvGroupLeft              = "groupLeft"
	EvNewGroupMessage        = "newGroupMessage"
	EvGroupMessageUpdated    = "groupMessageUpdated"
	EvGroupMessageDeleted    = "groupMessageDeleted"
	EvGroupMessagesRead      = "groupMessagesRead"
	EvMemberAdded            = "memberAdded"
	EvMemberRemoved          = "memberRemoved"
	EvMemberPromoted         = "memberPromoted"
	EvMemberRoleChanged      = "memberRoleChanged"
	EvOwnershipTransferred   = "ownershipTransferred"
	EvGroupDeleted           = "groupDeleted"
	EvYouWereAdded           = "youWereAdded"
	EvYouWereRemoved         = "youWereRemoved"
	EvError                  = "error"
)

// ClientEvent is the inbound wire frame. Data is decoded per event name.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is the outbound wire frame.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// ErrorPayload is only ever sent to the requesting connection.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Inbound payloads.

type RegisterUserPayload struct {
	UserID int `json:"userId"`
}

type SendMessagePayload struct {
	Receiver int    `json:"receiver"`
	Message  string `json:"message"`
	Audio    *Audio `json:"audio,omitempty"`
}

type EditMessagePayload struct {
	MessageID int    `json:"messageId"`
	NewText   string `json:"newText"`
}

type DeleteMessagePayload struct {
	MessageID int `json:"messageId"`
}

type MarkAsReadPayload struct {
	// Sender is the counterpart whose messages are being read.
	Sender int `json:"sender"`
}

type TypingPayload struct {
	ReceiverID int `json:"receiverId"`
}

type GroupRefPayload struct {
	GroupID int `json:"groupId"`
}

type SendGroupMessagePayload struct {
	GroupID int    `json:"groupId"`
	Content string `json:"content"`
}

type UpdateGroupMessagePayload struct {
	GroupID    int    `json:"groupId"`
	MessageID  int    `json:"messageId"`
	NewContent string `json:"newContent"`
}

type GroupMessageRefPayload struct {
	GroupID   int `json:"groupId"`
	MessageID int `json:"messageId"`
}

type GroupMemberPayload struct {
	GroupID  int `json:"groupId"`
	MemberID int `json:"memberId"`
}

type TransferOwnershipPayload struct {
	GroupID    int `json:"groupId"`
	NewOwnerID int `json:"newOwnerId"`
}

// Outbound payloads.

type TypingServerPayload struct {
	SenderID   int  `json:"senderId"`
	ReceiverID int  `json:"receiverId"`
	Typing     bool `json:"typing"`
}

type NewMessageNotificationPayload struct {
	SenderID int    `json:"senderId"`
	Message  string `json:"message"`
}

type MessagesReadPayload struct {
	ReaderID   int   `json:"readerId"`
	MessageIDs []int `json:"messageIds"`
}

type GroupMessageDeletedPayload struct {
	GroupID    int    `json:"groupId"`
	MessageID  int    `json:"messageId"`
	DeletedFor string `json:"deletedFor"` // "me" or "all"
}

type GroupMessagesReadPayload struct {
	GroupID  int `json:"groupId"`
	ReaderID int `json:"readerId"`
}

type MemberEventPayload struct {
	GroupID int          `json:"groupId"`
	Member  *GroupMember `json:"member,omitempty"`
	UserID  int          `json:"userId"`
	Role    Role         `json:"role,omitempty"`
}

type OwnershipTransferredPayload struct {
	GroupID         int `json:"groupId"`
	PreviousOwnerID int `json:"previousOwnerId"`
	NewOwnerID      int `json:"newOwnerId"`
}
