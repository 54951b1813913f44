package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, initiator int, target int, status models.ChatStatus) (models.Chat, error) {
	args := m.Called(ctx, initiator, target, status)
	var c models.Chat
	if val := args.Get(0); val != nil {
		c = val.(models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var c models.Chat
	if val := args.Get(0); val != nil {
		c = val.(models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepositoryMock) GetChatByPair(ctx context.Context, userA int, userB int) (models.Chat, error) {
	args := m.Called(ctx, userA, userB)
	var c models.Chat
	if val := args.Get(0); val != nil {
		c = val.(models.Chat)
	}
	return c, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) ListPending(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var list []models.Chat
	if val := args.Get(0); val != nil {
		list = val.([]models.Chat)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) UpdateStatus(ctx context.Context, chatID int, status models.ChatStatus) error {
	args := m.Called(ctx, chatID, status)
	return args.Error(0)
}

func (m *ChatRepositoryMock) SetDeleteRequest(ctx context.Context, chatID int, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) ClearDeleteRequest(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) SoftDeleteChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) RestoreChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) HasHistory(ctx context.Context, userA int, userB int) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) RecordHistory(ctx context.Context, userA int, userB int) error {
	args := m.Called(ctx, userA, userB)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, recipientID int, content string, clientKey string, status models.MessageStatus) (models.Message, bool, error) {
	args := m.Called(ctx, chatID, senderID, recipientID, content, clientKey, status)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CountFromSender(ctx context.Context, chatID int, senderID int) (int, error) {
	args := m.Called(ctx, chatID, senderID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkDeleted(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, chatID int, readerID int) (int, error) {
	args := m.Called(ctx, chatID, readerID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkDelivered(ctx context.Context, userID int) ([]models.DeliveryUpdate, error) {
	args := m.Called(ctx, userID)
	var updates []models.DeliveryUpdate
	if val := args.Get(0); val != nil {
		updates = val.([]models.DeliveryUpdate)
	}
	return updates, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, chatID int, userID int) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

type BlockRepositoryMock struct {
	mock.Mock
}

func (m *BlockRepositoryMock) Block(ctx context.Context, blockerID int, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) Unblock(ctx context.Context, blockerID int, blockedID int) error {
	args := m.Called(ctx, blockerID, blockedID)
	return args.Error(0)
}

func (m *BlockRepositoryMock) IsBlocked(ctx context.Context, userA int, userB int) (bool, error) {
	args := m.Called(ctx, userA, userB)
	return args.Bool(0), args.Error(1)
}

func (m *BlockRepositoryMock) ListBlocked(ctx context.Context, blockerID int) ([]models.BlockEntry, error) {
	args := m.Called(ctx, blockerID)
	var entries []models.BlockEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.BlockEntry)
	}
	return entries, args.Error(1)
}

// BroadcasterMock records fan-out events for assertions.
type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) SendToUser(userID int, event models.ServerEvent) {
	m.Called(userID, event)
}

func (m *BroadcasterMock) SendToChatUser(chatID int, userID int, event models.ServerEvent) {
	m.Called(chatID, userID, event)
}

// PresenceStub answers online checks from a fixed set.
type PresenceStub struct {
	OnlineUsers map[int]bool
}

func (p PresenceStub) IsOnline(userID int) bool {
	return p.OnlineUsers[userID]
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.BlockRepository = (*BlockRepositoryMock)(nil)
