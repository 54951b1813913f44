package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
)

func TestRequestChatRejectsSelf(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RequestChat(context.Background(), 1, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestRequestChatBlockedPair(t *testing.T) {
	f := newFixture()
	f.blocks.On("IsBlocked", mock.Anything, 1, 2).Return(true, nil).Once()

	_, err := f.svc.RequestChat(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrBlocked)
	f.chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestChatFirstContactIsPending(t *testing.T) {
	f := newFixture()
	f.blocks.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("GetChatByPair", mock.Anything, 1, 2).Return(models.Chat{}, repositories.ErrChatNotFound).Once()
	f.chats.On("HasHistory", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("CreateChat", mock.Anything, 1, 2, models.ChatPending).Return(pendingChat(5, 1, 2, 1), nil).Once()

	chat, err := f.svc.RequestChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ChatPending, chat.Status)

	// Target gets the request notification plus the status broadcast.
	targetEvents := f.cast.eventsFor(2)
	require.Len(t, targetEvents, 2)
	assert.Equal(t, models.EvNewNotification, targetEvents[0].Type)
	assert.Equal(t, models.EvChatStatusChanged, targetEvents[1].Type)
	f.chats.AssertExpectations(t)
}

func TestRequestChatWithHistorySkipsPending(t *testing.T) {
	f := newFixture()
	f.blocks.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("GetChatByPair", mock.Anything, 1, 2).Return(models.Chat{}, repositories.ErrChatNotFound).Once()
	f.chats.On("HasHistory", mock.Anything, 1, 2).Return(true, nil).Once()
	f.chats.On("CreateChat", mock.Anything, 1, 2, models.ChatAccepted).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	chat, err := f.svc.RequestChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ChatAccepted, chat.Status)
	f.chats.AssertExpectations(t)
}

func TestRequestChatReturnsExisting(t *testing.T) {
	f := newFixture()
	f.blocks.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("GetChatByPair", mock.Anything, 1, 2).Return(pendingChat(5, 1, 2, 1), nil).Once()

	chat, err := f.svc.RequestChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, chat.ID)
	f.chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestChatRestoresSoftDeleted(t *testing.T) {
	f := newFixture()
	deleted := acceptedChat(5, 1, 2, 1)
	deleted.Deleted = true
	f.blocks.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("GetChatByPair", mock.Anything, 1, 2).Return(deleted, nil).Once()
	f.chats.On("RestoreChat", mock.Anything, 5).Return(nil).Once()

	chat, err := f.svc.RequestChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, chat.Deleted)
	f.chats.AssertExpectations(t)
}

func TestRequestChatLosesCreateRace(t *testing.T) {
	f := newFixture()
	f.blocks.On("IsBlocked", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("GetChatByPair", mock.Anything, 1, 2).Return(models.Chat{}, repositories.ErrChatNotFound).Once()
	f.chats.On("HasHistory", mock.Anything, 1, 2).Return(false, nil).Once()
	f.chats.On("CreateChat", mock.Anything, 1, 2, models.ChatPending).Return(models.Chat{}, assert.AnError).Once()
	f.chats.On("GetChatByPair", mock.Anything, 1, 2).Return(pendingChat(5, 2, 1, 2), nil).Once()

	chat, err := f.svc.RequestChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, chat.ID)
}

func TestApproveByNonInitiator(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(pendingChat(5, 1, 2, 1), nil).Once()
	f.chats.On("UpdateStatus", mock.Anything, 5, models.ChatAccepted).Return(nil).Once()
	f.chats.On("RecordHistory", mock.Anything, 1, 2).Return(nil).Once()

	chat, err := f.svc.Approve(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ChatAccepted, chat.Status)
	f.chats.AssertExpectations(t)
}

func TestApproveByInitiatorForbidden(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(pendingChat(5, 1, 2, 1), nil).Once()

	_, err := f.svc.Approve(context.Background(), 5, 1)
	require.ErrorIs(t, err, ErrNotAuthorized)
	f.chats.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestApproveNonPendingChat(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	_, err := f.svc.Approve(context.Background(), 5, 2)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestRejectMakesChatInert(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(pendingChat(5, 1, 2, 1), nil).Once()
	f.chats.On("UpdateStatus", mock.Anything, 5, models.ChatRejected).Return(nil).Once()

	chat, err := f.svc.Reject(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.Equal(t, models.ChatRejected, chat.Status)
	f.chats.AssertExpectations(t)
}

func TestRequestDeleteNotifiesOtherParticipant(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()
	f.chats.On("SetDeleteRequest", mock.Anything, 5, 1).Return(nil).Once()

	require.NoError(t, f.svc.RequestDelete(context.Background(), 5, 1))
	events := f.cast.eventsFor(2)
	require.Len(t, events, 1)
	assert.Equal(t, models.EvNewNotification, events[0].Type)
}

func TestRequestDeleteIdempotentForSameUser(t *testing.T) {
	f := newFixture()
	requester := 1
	c := acceptedChat(5, 1, 2, 1)
	c.DeleteRequestedBy = &requester
	f.chats.On("GetChat", mock.Anything, 5).Return(c, nil).Once()

	require.NoError(t, f.svc.RequestDelete(context.Background(), 5, 1))
	f.chats.AssertNotCalled(t, "SetDeleteRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestRequestDeleteConflictsWithOpenRequest(t *testing.T) {
	f := newFixture()
	requester := 1
	c := acceptedChat(5, 1, 2, 1)
	c.DeleteRequestedBy = &requester
	f.chats.On("GetChat", mock.Anything, 5).Return(c, nil).Once()

	require.ErrorIs(t, f.svc.RequestDelete(context.Background(), 5, 2), ErrNotAllowed)
}

func TestRequestDeleteRequiresAcceptedChat(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(pendingChat(5, 1, 2, 1), nil).Once()

	require.ErrorIs(t, f.svc.RequestDelete(context.Background(), 5, 1), ErrNotAllowed)
}

func TestApproveDeleteByOtherParticipant(t *testing.T) {
	f := newFixture()
	requester := 1
	c := acceptedChat(5, 1, 2, 1)
	c.DeleteRequestedBy = &requester
	f.chats.On("GetChat", mock.Anything, 5).Return(c, nil).Once()
	f.chats.On("SoftDeleteChat", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, f.svc.ApproveDelete(context.Background(), 5, 2))

	for _, userID := range []int{1, 2} {
		events := f.cast.eventsFor(userID)
		require.Len(t, events, 1)
		assert.Equal(t, models.EvChatStatusChanged, events[0].Type)
		assert.Equal(t, "deleted", events[0].Status)
	}
	f.chats.AssertExpectations(t)
}

func TestApproveDeleteCannotSelfApprove(t *testing.T) {
	f := newFixture()
	requester := 1
	c := acceptedChat(5, 1, 2, 1)
	c.DeleteRequestedBy = &requester
	f.chats.On("GetChat", mock.Anything, 5).Return(c, nil).Once()

	require.ErrorIs(t, f.svc.ApproveDelete(context.Background(), 5, 1), ErrNotAuthorized)
	f.chats.AssertNotCalled(t, "SoftDeleteChat", mock.Anything, mock.Anything)
}

func TestApproveDeleteWithoutOpenRequest(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	require.ErrorIs(t, f.svc.ApproveDelete(context.Background(), 5, 2), ErrNotAllowed)
}

func TestDeclineDeleteClearsRequest(t *testing.T) {
	f := newFixture()
	requester := 1
	c := acceptedChat(5, 1, 2, 1)
	c.DeleteRequestedBy = &requester
	f.chats.On("GetChat", mock.Anything, 5).Return(c, nil).Once()
	f.chats.On("ClearDeleteRequest", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, f.svc.DeclineDelete(context.Background(), 5, 2))
	f.chats.AssertExpectations(t)
}

func TestAnnounceStatusRequiresMembership(t *testing.T) {
	f := newFixture()
	f.chats.On("GetChat", mock.Anything, 5).Return(acceptedChat(5, 1, 2, 1), nil).Once()

	require.ErrorIs(t, f.svc.AnnounceStatus(context.Background(), 5, 3), ErrNotAuthorized)
	assert.Empty(t, f.cast.eventsFor(1))
}
