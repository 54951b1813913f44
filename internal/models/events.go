package models

// Client-to-server event types.
const (
	EvUserOnline     = "user-online"
	EvGetOnlineUsers = "get-online-users"
	EvJoinChat       = "join-chat"
	EvLeaveChat      = "leave-chat"
	EvSendMessage    = "send-message"
	EvDeleteMessage  = "delete-message"
	EvMarkRead       = "mark-read"
	EvTyping         = "typing"
	EvChatApproved   = "chat-approved"
	EvChatRejected   = "chat-rejected"
)

// Server-to-client event types.
const (
	EvNewMessage          = "new-message"
	EvMessageError        = "message-error"
	EvMessageStatusUpdate = "message-status-update"
	EvMessagesRead        = "messages-read"
	EvMessageDeleted      = "message-deleted"
	EvUserTyping          = "user-typing"
	EvUserStatusChange    = "user-status-change"
	EvOnlineUsersList     = "online-users-list"
	EvChatStatusChanged   = "chat-status-changed"
	EvNewNotification     = "new-notification"
)

// ClientEvent is a message read from a websocket connection.
type ClientEvent struct {
	Type      string `json:"type"`
	ChatID    int    `json:"chat_id,omitempty"`
	MessageID int    `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
	ClientKey string `json:"client_key,omitempty"`
	IsTyping  bool   `json:"is_typing,omitempty"`
}

// ServerEvent is broadcast through websocket connections.
type ServerEvent struct {
	Type        string   `json:"type"`
	ChatID      int      `json:"chat_id,omitempty"`
	Message     *Message `json:"message,omitempty"`
	MessageID   int      `json:"message_id,omitempty"`
	Status      string   `json:"status,omitempty"`
	UserID      int      `json:"user_id,omitempty"`
	Online      *bool    `json:"online,omitempty"`
	OnlineUsers []int    `json:"online_users,omitempty"`
	IsTyping    *bool    `json:"is_typing,omitempty"`
	UnreadCount int      `json:"unread_count,omitempty"`
	Error       string   `json:"error,omitempty"`
}
