package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Eroo144/instaclone/internal/adapters/memstore"
	"github.com/Eroo144/instaclone/internal/domain"
)

type brokerEvent struct {
	UserID  string
	Kind    string
	Payload any
}

// recordingBroker captures fan-out calls so tests can assert on what
// would have been pushed to live sessions.
type recordingBroker struct {
	mu        sync.Mutex
	delivered []brokerEvent
	broadcast []brokerEvent
}

func (b *recordingBroker) DeliverToUser(userID, kind string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delivered = append(b.delivered, brokerEvent{UserID: userID, Kind: kind, Payload: payload})
}

func (b *recordingBroker) Broadcast(kind string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcast = append(b.broadcast, brokerEvent{Kind: kind, Payload: payload})
}

func (b *recordingBroker) deliveredTo(userID, kind string) []brokerEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []brokerEvent
	for _, e := range b.delivered {
		if e.UserID == userID && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*SocialService, *recordingBroker) {
	t.Helper()
	broker := &recordingBroker{}
	return NewSocialService(memstore.New(), broker), broker
}

func registerUser(t *testing.T, svc *SocialService, username string) domain.User {
	t.Helper()
	u, _, err := svc.Register(context.Background(), username, username+"@example.com", "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "pw"},
		{"empty email", "alice", "", "pw"},
		{"empty password", "alice", "a@example.com", ""},
		{"whitespace username", "   ", "a@example.com", "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			if !errors.Is(err, domain.ErrInvalidOperation) {
				t.Fatalf("expected invalid operation, got %v", err)
			}
		})
	}
}

func TestRegisterConflictAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if u.PasswordHash != "" {
		t.Fatal("password hash must never leave the service")
	}

	if _, _, err := svc.Register(ctx, "alice", "alice2@example.com", "secret123"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	got, loginToken, err := svc.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID || loginToken == "" {
		t.Fatalf("unexpected login result: %+v", got)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret123"); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, token, err := svc.Register(ctx, "alice", "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	ident, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if ident.User.ID != u.ID {
		t.Fatalf("authenticated as %s, want %s", ident.User.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "bogus"); err == nil {
		t.Fatal("expected error for bogus token")
	}
}

func TestFollowToggleRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")

	res, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("follow: %v", err)
	}
	if !res.Following || res.FollowersCount != 1 {
		t.Fatalf("unexpected follow result: %+v", res)
	}

	res, err = svc.ToggleFollow(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if res.Following || res.FollowersCount != 0 {
		t.Fatalf("unexpected unfollow result: %+v", res)
	}
}

func TestSelfFollowRejected(t *testing.T) {
	svc, _ := newTestService(t)
	alice := registerUser(t, svc, "alice")

	_, err := svc.ToggleFollow(context.Background(), alice.ID, alice.ID)
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}

func TestFollowNotifiesOnlyOnFollow(t *testing.T) {
	svc, broker := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")

	if _, err := svc.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if _, err := svc.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}

	notifs, err := svc.ListNotifications(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", len(notifs))
	}
	if notifs[0].Kind != domain.NotifyFollow || notifs[0].ActorUsername != "alice" {
		t.Fatalf("unexpected notification: %+v", notifs[0])
	}
	if got := broker.deliveredTo(bob.ID, domain.EventNewNotification); len(got) != 1 {
		t.Fatalf("expected 1 live notification event, got %d", len(got))
	}
}

func TestCreatePostBroadcastsGlobally(t *testing.T) {
	svc, broker := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	post, err := svc.CreatePost(ctx, alice.ID, "hello world", "img-1")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if post.AuthorID != alice.ID {
		t.Fatalf("unexpected author: %s", post.AuthorID)
	}

	broker.mu.Lock()
	defer broker.mu.Unlock()
	if len(broker.broadcast) != 1 || broker.broadcast[0].Kind != domain.EventPostCreated {
		t.Fatalf("expected one post-created broadcast, got %+v", broker.broadcast)
	}
}

func TestCreatePostUnknownAuthor(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreatePost(context.Background(), "missing", "hello", "")
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation, got %v", err)
	}
}

func TestFeedFilteredByFollowing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	carol := registerUser(t, svc, "carol")

	if _, err := svc.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}

	own, _ := svc.CreatePost(ctx, alice.ID, "mine", "")
	followed, _ := svc.CreatePost(ctx, bob.ID, "bob's", "")
	if _, err := svc.CreatePost(ctx, carol.ID, "carol's", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	feed, err := svc.ListFeed(ctx, alice.ID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 posts in feed, got %d", len(feed))
	}
	seen := map[string]bool{}
	for _, p := range feed {
		seen[p.ID] = true
	}
	if !seen[own.ID] || !seen[followed.ID] {
		t.Fatalf("feed missing expected posts: %+v", feed)
	}
}

func TestFeedNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	first, _ := svc.CreatePost(ctx, alice.ID, "first", "")
	second, _ := svc.CreatePost(ctx, alice.ID, "second", "")

	feed, err := svc.ListFeed(ctx, alice.ID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(feed))
	}
	if feed[0].ID != second.ID || feed[1].ID != first.ID {
		t.Fatal("expected newest first")
	}
}

// Bob likes Alice's post: like count 1, Alice has exactly one like
// notification. Bob likes again: count 0 and no new notification.
func TestLikeToggleScenario(t *testing.T) {
	svc, broker := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	post, _ := svc.CreatePost(ctx, alice.ID, "sunset", "")

	liked, err := svc.ToggleLike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if len(liked.Likes) != 1 {
		t.Fatalf("expected 1 like, got %d", len(liked.Likes))
	}

	notifs, _ := svc.ListNotifications(ctx, alice.ID)
	if len(notifs) != 1 || notifs[0].Kind != domain.NotifyLike {
		t.Fatalf("expected one like notification, got %+v", notifs)
	}
	if notifs[0].PostID != post.ID || notifs[0].ActorUsername != "bob" {
		t.Fatalf("notification missing context: %+v", notifs[0])
	}

	unliked, err := svc.ToggleLike(ctx, post.ID, bob.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if len(unliked.Likes) != 0 {
		t.Fatalf("expected 0 likes, got %d", len(unliked.Likes))
	}

	notifs, _ = svc.ListNotifications(ctx, alice.ID)
	if len(notifs) != 1 {
		t.Fatalf("unlike must not add a notification, got %d", len(notifs))
	}
	if got := broker.deliveredTo(alice.ID, domain.EventNewNotification); len(got) != 1 {
		t.Fatalf("expected exactly 1 live notification, got %d", len(got))
	}
}

func TestLikingOwnPostDoesNotNotify(t *testing.T) {
	svc, broker := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	post, _ := svc.CreatePost(ctx, alice.ID, "selfie", "")

	if _, err := svc.ToggleLike(ctx, post.ID, alice.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	notifs, _ := svc.ListNotifications(ctx, alice.ID)
	if len(notifs) != 0 {
		t.Fatalf("self-like must not notify, got %+v", notifs)
	}
	if got := broker.deliveredTo(alice.ID, domain.EventNewNotification); len(got) != 0 {
		t.Fatalf("self-like must not push a live event, got %d", len(got))
	}
}

func TestCommentNotifiesAuthor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	post, _ := svc.CreatePost(ctx, alice.ID, "pic", "")

	c, err := svc.AddComment(ctx, post.ID, bob.ID, "nice shot")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if c.Text != "nice shot" || c.ID == "" {
		t.Fatalf("unexpected comment: %+v", c)
	}

	notifs, _ := svc.ListNotifications(ctx, alice.ID)
	if len(notifs) != 1 || notifs[0].Kind != domain.NotifyComment {
		t.Fatalf("expected one comment notification, got %+v", notifs)
	}

	if _, err := svc.AddComment(ctx, post.ID, bob.ID, "   "); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation for blank comment, got %v", err)
	}
	if _, err := svc.AddComment(ctx, "missing", bob.ID, "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// Carol messages Dave while he has no live session. The delivery event
// is dropped but the message and its notification persist, so Dave sees
// both when he comes back.
func TestOfflineMessageScenario(t *testing.T) {
	svc, broker := newTestService(t)
	ctx := context.Background()

	carol := registerUser(t, svc, "carol")
	dave := registerUser(t, svc, "dave")

	msg, err := svc.SendMessage(ctx, carol.ID, dave.ID, "are you around?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.SenderID != carol.ID || msg.ReceiverID != dave.ID {
		t.Fatalf("unexpected message: %+v", msg)
	}

	conv, err := svc.ListMessages(ctx, dave.ID, carol.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(conv) != 1 || conv[0].Text != "are you around?" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}

	notifs, _ := svc.ListNotifications(ctx, dave.ID)
	if len(notifs) != 1 || notifs[0].Kind != domain.NotifyMessage {
		t.Fatalf("expected one message notification, got %+v", notifs)
	}

	if got := broker.deliveredTo(dave.ID, domain.EventNewMessage); len(got) != 1 {
		t.Fatalf("expected the message handed to the broker once, got %d", len(got))
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	carol := registerUser(t, svc, "carol")

	if _, err := svc.SendMessage(ctx, carol.ID, carol.ID, "hi"); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation for self-message, got %v", err)
	}
	if _, err := svc.SendMessage(ctx, carol.ID, "missing", "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown receiver, got %v", err)
	}

	dave := registerUser(t, svc, "dave")
	if _, err := svc.SendMessage(ctx, carol.ID, dave.ID, "   "); !errors.Is(err, domain.ErrInvalidOperation) {
		t.Fatalf("expected invalid operation for blank text, got %v", err)
	}
}

func TestConversationOrderedOldestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	carol := registerUser(t, svc, "carol")
	dave := registerUser(t, svc, "dave")

	texts := []string{"one", "two", "three"}
	for i, text := range texts {
		sender, receiver := carol.ID, dave.ID
		if i%2 == 1 {
			sender, receiver = dave.ID, carol.ID
		}
		if _, err := svc.SendMessage(ctx, sender, receiver, text); err != nil {
			t.Fatalf("send %q: %v", text, err)
		}
	}

	conv, err := svc.ListMessages(ctx, carol.ID, dave.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(conv) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(conv))
	}
	for i, want := range texts {
		if conv[i].Text != want {
			t.Fatalf("message %d = %q, want %q", i, conv[i].Text, want)
		}
	}
}

func TestListUsersExcludesViewer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	registerUser(t, svc, "bob")
	registerUser(t, svc, "carol")

	users, err := svc.ListUsers(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == alice.ID {
			t.Fatal("viewer must be excluded")
		}
		if u.PasswordHash != "" {
			t.Fatal("password hash leaked")
		}
	}
}

func TestMarkNotificationRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice := registerUser(t, svc, "alice")
	bob := registerUser(t, svc, "bob")
	post, _ := svc.CreatePost(ctx, alice.ID, "pic", "")
	if _, err := svc.ToggleLike(ctx, post.ID, bob.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	notifs, _ := svc.ListNotifications(ctx, alice.ID)
	if len(notifs) != 1 || notifs[0].Read {
		t.Fatalf("expected one unread notification, got %+v", notifs)
	}

	marked, err := svc.MarkNotificationRead(ctx, notifs[0].ID)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !marked.Read {
		t.Fatal("expected read=true")
	}

	if _, err := svc.MarkNotificationRead(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
