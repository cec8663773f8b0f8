package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Eroo144/instaclone/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// SocialService implements the interaction rules over the entity store
// and pushes resulting events through the broker. It holds no entity
// state of its own.
type SocialService struct {
	store    domain.EntityStore
	broker   domain.EventBroker
	notifier *Notifier
}

func NewSocialService(store domain.EntityStore, broker domain.EventBroker) *SocialService {
	return &SocialService{
		store:    store,
		broker:   broker,
		notifier: NewNotifier(store, broker),
	}
}

// Register creates a user and issues an access token in one step.
func (s *SocialService) Register(ctx context.Context, username, email, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return domain.User{}, "", fmt.Errorf("username, email and password are required: %w", domain.ErrInvalidOperation)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}

	u, err := s.store.CreateUser(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.issueToken(ctx, u.ID, "register")
	if err != nil {
		return domain.User{}, "", err
	}
	return sanitizeUser(u), token, nil
}

// Login authenticates by email and issues a fresh access token.
func (s *SocialService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	u, err := s.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("invalid credentials: %w", domain.ErrInvalidOperation)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", fmt.Errorf("invalid credentials: %w", domain.ErrInvalidOperation)
	}

	token, err := s.issueToken(ctx, u.ID, "login")
	if err != nil {
		return domain.User{}, "", err
	}
	return sanitizeUser(u), token, nil
}

// Authenticate resolves a bearer token to the identity it was issued to.
func (s *SocialService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	t, err := s.store.AccessTokenByHash(ctx, hashToken(token))
	if err != nil {
		return domain.Identity{}, errors.New("unauthorized")
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now().UTC()) {
		return domain.Identity{}, errors.New("token expired")
	}
	u, err := s.store.UserByID(ctx, t.UserID)
	if err != nil {
		return domain.Identity{}, errors.New("unauthorized")
	}
	return domain.Identity{User: sanitizeUser(u)}, nil
}

// ToggleFollow flips the follower->target edge. Following again after
// an unfollow (or vice versa) returns the pair to its original state.
// Only the follow transition notifies the target.
func (s *SocialService) ToggleFollow(ctx context.Context, followerID, targetID string) (domain.FollowResult, error) {
	if followerID == targetID {
		return domain.FollowResult{}, fmt.Errorf("cannot follow yourself: %w", domain.ErrInvalidOperation)
	}

	following, count, err := s.store.ToggleFollow(ctx, followerID, targetID)
	if err != nil {
		return domain.FollowResult{}, err
	}
	if following {
		s.notifier.Notify(ctx, targetID, domain.NotifyFollow, followerID, "")
	}
	return domain.FollowResult{Following: following, FollowersCount: count}, nil
}

// CreatePost stores a post and broadcasts it to every connected
// session. The broadcast is global; the feed read path filters by
// following.
func (s *SocialService) CreatePost(ctx context.Context, authorID, caption, mediaRef string) (domain.Post, error) {
	if _, err := s.store.UserByID(ctx, authorID); err != nil {
		return domain.Post{}, fmt.Errorf("author does not resolve: %w", domain.ErrInvalidOperation)
	}

	p, err := s.store.CreatePost(ctx, domain.Post{
		AuthorID: authorID,
		Caption:  caption,
		MediaRef: mediaRef,
	})
	if err != nil {
		return domain.Post{}, err
	}

	s.broker.Broadcast(domain.EventPostCreated, p)
	return p, nil
}

// ListFeed returns the viewer's own posts plus posts by anyone the
// viewer follows, newest first.
func (s *SocialService) ListFeed(ctx context.Context, viewerID string) ([]domain.Post, error) {
	viewer, err := s.store.UserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	followed := make(map[string]struct{}, len(viewer.Following))
	for _, id := range viewer.Following {
		followed[id] = struct{}{}
	}

	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	feed := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.AuthorID == viewerID {
			feed = append(feed, p)
			continue
		}
		if _, ok := followed[p.AuthorID]; ok {
			feed = append(feed, p)
		}
	}

	sort.Slice(feed, func(i, j int) bool {
		if feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].Seq > feed[j].Seq
		}
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	return feed, nil
}

// ToggleLike flips userID's like on the post. Only the like transition
// generates a notification; unliking never does.
func (s *SocialService) ToggleLike(ctx context.Context, postID, userID string) (domain.Post, error) {
	p, liked, err := s.store.ToggleLike(ctx, postID, userID)
	if err != nil {
		return domain.Post{}, err
	}
	if liked {
		s.notifier.Notify(ctx, p.AuthorID, domain.NotifyLike, userID, p.ID)
	}
	return p, nil
}

// AddComment appends a comment to the post and notifies its author.
func (s *SocialService) AddComment(ctx context.Context, postID, userID, text string) (domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Comment{}, fmt.Errorf("comment text is required: %w", domain.ErrInvalidOperation)
	}

	p, err := s.store.PostByID(ctx, postID)
	if err != nil {
		return domain.Comment{}, err
	}

	c, err := s.store.AppendComment(ctx, postID, domain.Comment{
		AuthorID: userID,
		Text:     text,
	})
	if err != nil {
		return domain.Comment{}, err
	}

	s.notifier.Notify(ctx, p.AuthorID, domain.NotifyComment, userID, p.ID)
	return c, nil
}

// ListUsers returns every user except the viewer, password hashes
// stripped.
func (s *SocialService) ListUsers(ctx context.Context, viewerID string) ([]domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.ID == viewerID {
			continue
		}
		out = append(out, sanitizeUser(u))
	}
	return out, nil
}

func (s *SocialService) GetUser(ctx context.Context, id string) (domain.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return sanitizeUser(u), nil
}

// SendMessage stores a direct message, delivers it to the receiver's
// open sessions and generates a message notification. A receiver with
// no open session just misses the live event; the message itself is
// always retrievable from the conversation.
func (s *SocialService) SendMessage(ctx context.Context, senderID, receiverID, text string) (domain.Message, error) {
	if senderID == receiverID {
		return domain.Message{}, fmt.Errorf("cannot message yourself: %w", domain.ErrInvalidOperation)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, fmt.Errorf("message text is required: %w", domain.ErrInvalidOperation)
	}
	if _, err := s.store.UserByID(ctx, receiverID); err != nil {
		return domain.Message{}, err
	}

	m, err := s.store.CreateMessage(ctx, domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.broker.DeliverToUser(receiverID, domain.EventNewMessage, m)
	s.notifier.Notify(ctx, receiverID, domain.NotifyMessage, senderID, "")
	return m, nil
}

// ListMessages returns the conversation between userID and peerID,
// oldest first.
func (s *SocialService) ListMessages(ctx context.Context, userID, peerID string) ([]domain.Message, error) {
	return s.store.ListConversation(ctx, userID, peerID)
}

func (s *SocialService) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.store.ListNotifications(ctx, userID)
}

// MarkNotificationRead is idempotent: re-marking an already-read
// notification returns it unchanged.
func (s *SocialService) MarkNotificationRead(ctx context.Context, id string) (domain.Notification, error) {
	return s.store.MarkNotificationRead(ctx, id)
}

func (s *SocialService) issueToken(ctx context.Context, userID, name string) (string, error) {
	plain, hash, err := newTokenPair()
	if err != nil {
		return "", err
	}
	_, err = s.store.CreateAccessToken(ctx, domain.AccessToken{
		UserID:    userID,
		Name:      name,
		TokenHash: hash,
	})
	if err != nil {
		return "", err
	}
	return plain, nil
}

func sanitizeUser(u domain.User) domain.User {
	u.PasswordHash = ""
	return u
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newTokenPair() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plain := base64.RawURLEncoding.EncodeToString(raw)
	return plain, hashToken(plain), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:])
}
