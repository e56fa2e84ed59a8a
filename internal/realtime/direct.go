package realtime

import (
	"context"
	"encoding/json"

	"messenger-service/internal/models"
)

func (r *Router) handleRegisterUser(conn Conn, data json.RawMessage) error {
	var req models.RegisterUserPayload
	if err := decode(data, &req); err != nil {
		return err
	}
	// The identity was verified at the handshake; the announcement must match.
	if req.UserID != conn.UserID() {
		return errValidation("registered user does not match connection identity")
	}

	r.gw.Register(conn)
	r.gw.BroadcastAll(models.ServerEvent{Event: models.EvUserOnline, Data: r.gw.OnlineIDs()})
	return nil
}

func (r *Router) handleSendMessage(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.SendMessagePayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.Receiver == 0 {
		return errValidation("receiver is required")
	}
	if req.Message == "" && req.Audio == nil {
		return errValidation("message body is empty")
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()
	msg, err := r.messages.CreateMessage(sctx, conn.UserID(), req.Receiver, req.Message, req.Audio)
	if err != nil {
		return err
	}

	// Durably stored; now notify. The sender always gets the confirmed record
	// back, closing their optimistic entry.
	event := models.ServerEvent{Event: models.EvReceiveMessage, Data: msg}
	conn.Send(event)
	if r.gw.SendToUser(req.Receiver, event) {
		r.gw.SendToUser(req.Receiver, models.ServerEvent{
			Event: models.EvNewMessageNotification,
			Data:  models.NewMessageNotificationPayload{SenderID: msg.SenderID, Message: msg.Content},
		})
	}
	return nil
}

func (r *Router) handleEditMessage(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.EditMessagePayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.NewText == "" {
		return errValidation("new text is empty")
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()
	msg, err := r.messages.EditMessage(sctx, req.MessageID, conn.UserID(), req.NewText)
	if err != nil {
		return err
	}

	r.gw.BroadcastPair(msg.SenderID, msg.ReceiverID, models.ServerEvent{Event: models.EvMessageEdited, Data: msg})
	return nil
}

func (r *Router) handleDeleteMessage(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.DeleteMessagePayload
	if err := decode(data, &req); err != nil {
		return err
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()
	msg, err := r.messages.DeleteMessage(sctx, req.MessageID, conn.UserID())
	if err != nil {
		return err
	}

	// Scoped to the two participants; nobody else holds this message.
	r.gw.BroadcastPair(msg.SenderID, msg.ReceiverID, models.ServerEvent{Event: models.EvMessageDeleted, Data: msg.ID})
	return nil
}

func (r *Router) handleMarkAsRead(ctx context.Context, conn Conn, data json.RawMessage) error {
	var req models.MarkAsReadPayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.Sender == 0 {
		return errValidation("sender is required")
	}

	sctx, cancel := r.storeCtx(ctx)
	defer cancel()
	ids, err := r.messages.MarkRead(sctx, conn.UserID(), req.Sender)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	r.gw.SendToUser(req.Sender, models.ServerEvent{
		Event: models.EvMessagesRead,
		Data:  models.MessagesReadPayload{ReaderID: conn.UserID(), MessageIDs: ids},
	})
	return nil
}

func (r *Router) handleTyping(conn Conn, data json.RawMessage, typing bool) error {
	var req models.TypingPayload
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.ReceiverID == 0 {
		return errValidation("receiver is required")
	}

	// Ephemeral: relayed to the counterpart, never stored.
	r.gw.SendToUser(req.ReceiverID, models.ServerEvent{
		Event: models.EvTypingServer,
		Data:  models.TypingServerPayload{SenderID: conn.UserID(), ReceiverID: req.ReceiverID, Typing: typing},
	})
	return nil
}
