package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat-service/internal/models"
)

func TestMarkReadFansOutReceipt(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()
	f.messages.On("MarkRead", mock.Anything, 5, 2).Return(3, nil).Once()

	require.NoError(t, f.svc.MarkRead(context.Background(), 5, 2))

	for _, userID := range []int{1, 2} {
		events := f.cast.eventsFor(userID)
		require.Len(t, events, 1)
		assert.Equal(t, models.EvMessagesRead, events[0].Type)
		assert.Equal(t, 2, events[0].UserID)
	}
	f.messages.AssertExpectations(t)
}

func TestMarkReadNonParticipant(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	require.ErrorIs(t, f.svc.MarkRead(context.Background(), 5, 3), ErrNotAuthorized)
	f.messages.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepDeliveredNotifiesEachSender(t *testing.T) {
	f := newFixture()
	f.messages.On("MarkDelivered", mock.Anything, 2).Return([]models.DeliveryUpdate{
		{MessageID: 10, ChatID: 5, SenderID: 1},
		{MessageID: 11, ChatID: 6, SenderID: 3},
	}, nil).Once()

	f.svc.SweepDelivered(context.Background(), 2)

	events := f.cast.eventsFor(1)
	require.Len(t, events, 1)
	assert.Equal(t, models.EvMessageStatusUpdate, events[0].Type)
	assert.Equal(t, 10, events[0].MessageID)
	assert.Equal(t, string(models.MessageDelivered), events[0].Status)
	require.Len(t, f.cast.eventsFor(3), 1)
}

func TestSweepDeliveredSwallowsRepoError(t *testing.T) {
	f := newFixture()
	f.messages.On("MarkDelivered", mock.Anything, 2).Return([]models.DeliveryUpdate(nil), assert.AnError).Once()

	f.svc.SweepDelivered(context.Background(), 2)
	assert.Empty(t, f.cast.eventsFor(1))
}

func TestSetTypingTargetsOtherParticipant(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	require.NoError(t, f.svc.SetTyping(context.Background(), 5, 1, true))

	f.cast.mu.Lock()
	defer f.cast.mu.Unlock()
	require.Len(t, f.cast.chatEvents, 1)
	event := f.cast.chatEvents[0]
	assert.Equal(t, models.EvUserTyping, event.Type)
	assert.Equal(t, 1, event.UserID)
	require.NotNil(t, event.IsTyping)
	assert.True(t, *event.IsTyping)
}

func TestSetTypingNonParticipant(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	require.ErrorIs(t, f.svc.SetTyping(context.Background(), 5, 9, true), ErrNotAuthorized)
}
