package realtime

import "messenger-service/internal/models"

// Conn is one authenticated realtime connection. Send must never block the
// caller; slow consumers are the transport's problem.
type Conn interface {
	UserID() int
	Send(event models.ServerEvent)
}

// Gateway routes server-side events to connections. Implemented by ws.Hub.
type Gateway interface {
	// Register maps the connection's user to it, replacing any previous
	// connection for that user (last registration wins).
	Register(conn Conn)
	// Unregister removes the connection and reports whether it was still the
	// user's active one.
	Unregister(conn Conn) bool
	IsOnline(userID int) bool
	OnlineIDs() []int

	SendToUser(userID int, event models.ServerEvent) bool
	BroadcastAll(event models.ServerEvent)
	BroadcastPair(userA int, userB int, event models.ServerEvent)

	JoinRoom(groupID int, conn Conn)
	LeaveRoom(groupID int, conn Conn)
	BroadcastRoom(groupID int, event models.ServerEvent)
	CloseRoom(groupID int)
}
