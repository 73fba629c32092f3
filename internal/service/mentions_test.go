package service

import (
	"context"
	"testing"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByNicknames(ctx context.Context, nicknames []string) ([]*domain.User, error) {
	args := m.Called(ctx, nicknames)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// --- Mock NotificationRepository ---

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockNotificationRepo) MentionedUserIDs(ctx context.Context, ref domain.DocumentRef) (map[string]bool, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

// --- Tests ---

func TestExtractMentions(t *testing.T) {
	html := `<p>cc @alice and @bob_smith, also @alice again; a@b is not a mention of b? @x is too short</p>`

	got := extractMentions(html)

	assert.Equal(t, []string{"alice", "bob_smith"}, got)
}

func TestMentionEffect_NotifiesFreshMentions(t *testing.T) {
	users := new(mockUserRepo)
	notifications := new(mockNotificationRepo)
	effect := NewMentionEffect(users, notifications, zerolog.Nop())

	ref := domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"}
	ev := ChangeEvent{
		Ref:     ref,
		ActorID: "actor",
		OldHTML: "<p>hi @carol</p>",
		NewHTML: "<p>hi @carol and @dave</p>",
	}

	// Only @dave is new relative to the previous content.
	users.On("FindByNicknames", mock.Anything, []string{"dave"}).
		Return([]*domain.User{{ID: "u-dave", Nickname: "dave"}}, nil)
	notifications.On("MentionedUserIDs", mock.Anything, ref).Return(map[string]bool{}, nil)
	users.On("FindByID", mock.Anything, "actor").
		Return(&domain.User{ID: "actor", Nickname: "eve"}, nil)
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u-dave" && n.Type == domain.NotificationTypeMention &&
			n.DocumentID == "p1" && n.SenderID == "actor"
	})).Return(nil)

	err := effect.Run(context.Background(), ev)

	assert.NoError(t, err)
	notifications.AssertExpectations(t)
}

func TestMentionEffect_SuppressesAlreadyNotified(t *testing.T) {
	users := new(mockUserRepo)
	notifications := new(mockNotificationRepo)
	effect := NewMentionEffect(users, notifications, zerolog.Nop())

	ref := domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"}
	ev := ChangeEvent{Ref: ref, ActorID: "actor", NewHTML: "<p>@frank</p>"}

	users.On("FindByNicknames", mock.Anything, []string{"frank"}).
		Return([]*domain.User{{ID: "u-frank", Nickname: "frank"}}, nil)
	notifications.On("MentionedUserIDs", mock.Anything, ref).
		Return(map[string]bool{"u-frank": true}, nil)
	users.On("FindByID", mock.Anything, "actor").Return(&domain.User{ID: "actor"}, nil)

	err := effect.Run(context.Background(), ev)

	assert.NoError(t, err)
	notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMentionEffect_SkipsSelfMention(t *testing.T) {
	users := new(mockUserRepo)
	notifications := new(mockNotificationRepo)
	effect := NewMentionEffect(users, notifications, zerolog.Nop())

	ref := domain.DocumentRef{Kind: domain.KindComments, ID: "c1"}
	ev := ChangeEvent{Ref: ref, ActorID: "u-grace", NewHTML: "<p>@grace</p>"}

	users.On("FindByNicknames", mock.Anything, []string{"grace"}).
		Return([]*domain.User{{ID: "u-grace", Nickname: "grace"}}, nil)
	notifications.On("MentionedUserIDs", mock.Anything, ref).Return(map[string]bool{}, nil)
	users.On("FindByID", mock.Anything, "u-grace").
		Return(&domain.User{ID: "u-grace", Nickname: "grace"}, nil)

	err := effect.Run(context.Background(), ev)

	assert.NoError(t, err)
	notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMentionEffect_NoMentionsIsCheap(t *testing.T) {
	users := new(mockUserRepo)
	notifications := new(mockNotificationRepo)
	effect := NewMentionEffect(users, notifications, zerolog.Nop())

	ev := ChangeEvent{
		Ref:     domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"},
		NewHTML: "<p>plain text</p>",
	}

	err := effect.Run(context.Background(), ev)

	assert.NoError(t, err)
	users.AssertNotCalled(t, "FindByNicknames", mock.Anything, mock.Anything)
}
