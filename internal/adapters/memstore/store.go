package memstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Eroo144/instaclone/internal/domain"
	"github.com/google/uuid"
)

// Store implements domain.EntityStore with process-lifetime maps. A
// single RWMutex guards every collection: each mutation runs as one
// critical section, so concurrent toggles on the same post or user pair
// serialize into a total order. All reads return copies.
type Store struct {
	mu  sync.RWMutex
	seq uint64

	users        map[string]*domain.User
	userByName   map[string]string
	userByEmail  map[string]string
	userOrder    []string
	posts        map[string]*domain.Post
	postOrder    []string
	messages     []domain.Message
	notifs       map[string]*domain.Notification
	notifOrder   []string
	tokensByHash map[string]domain.AccessToken
}

func New() *Store {
	return &Store{
		users:        make(map[string]*domain.User),
		userByName:   make(map[string]string),
		userByEmail:  make(map[string]string),
		posts:        make(map[string]*domain.Post),
		notifs:       make(map[string]*domain.Notification),
		tokensByHash: make(map[string]domain.AccessToken),
	}
}

func (s *Store) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nameKey := strings.ToLower(value.Username)
	emailKey := strings.ToLower(value.Email)
	if _, taken := s.userByName[nameKey]; taken {
		return domain.User{}, fmt.Errorf("username %q: %w", value.Username, domain.ErrConflict)
	}
	if _, taken := s.userByEmail[emailKey]; taken {
		return domain.User{}, fmt.Errorf("email %q: %w", value.Email, domain.ErrConflict)
	}

	value.ID = uuid.NewString()
	value.CreatedAt = time.Now().UTC()
	value.Followers = nil
	value.Following = nil

	u := value
	s.users[u.ID] = &u
	s.userByName[nameKey] = u.ID
	s.userByEmail[emailKey] = u.ID
	s.userOrder = append(s.userOrder, u.ID)
	return cloneUser(&u), nil
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", id, domain.ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.userByEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) UserByEmailOrUsername(ctx context.Context, q string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := strings.ToLower(q)
	if id, ok := s.userByEmail[key]; ok {
		return cloneUser(s.users[id]), nil
	}
	if id, ok := s.userByName[key]; ok {
		return cloneUser(s.users[id]), nil
	}
	return domain.User{}, fmt.Errorf("user %q: %w", q, domain.ErrNotFound)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, cloneUser(s.users[id]))
	}
	return out, nil
}

// ToggleFollow flips the follower->target edge and keeps both sides of
// the relationship consistent within one critical section.
func (s *Store) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	follower, ok := s.users[followerID]
	if !ok {
		return false, 0, fmt.Errorf("user %q: %w", followerID, domain.ErrNotFound)
	}
	target, ok := s.users[targetID]
	if !ok {
		return false, 0, fmt.Errorf("user %q: %w", targetID, domain.ErrNotFound)
	}

	if contains(follower.Following, targetID) {
		follower.Following = remove(follower.Following, targetID)
		target.Followers = remove(target.Followers, followerID)
		return false, len(target.Followers), nil
	}
	follower.Following = append(follower.Following, targetID)
	target.Followers = append(target.Followers, followerID)
	return true, len(target.Followers), nil
}

func (s *Store) CreatePost(ctx context.Context, value domain.Post) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value.ID = uuid.NewString()
	value.CreatedAt = time.Now().UTC()
	s.seq++
	value.Seq = s.seq
	value.Likes = nil
	value.Comments = nil

	p := value
	s.posts[p.ID] = &p
	s.postOrder = append(s.postOrder, p.ID)
	return clonePost(&p), nil
}

func (s *Store) PostByID(ctx context.Context, id string) (domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return domain.Post{}, fmt.Errorf("post %q: %w", id, domain.ErrNotFound)
	}
	return clonePost(p), nil
}

func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Post, 0, len(s.postOrder))
	for _, id := range s.postOrder {
		out = append(out, clonePost(s.posts[id]))
	}
	return out, nil
}

// ToggleLike flips userID's membership in the post's like set and
// reports whether the user likes the post afterwards.
func (s *Store) ToggleLike(ctx context.Context, postID, userID string) (domain.Post, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return domain.Post{}, false, fmt.Errorf("post %q: %w", postID, domain.ErrNotFound)
	}

	if contains(p.Likes, userID) {
		p.Likes = remove(p.Likes, userID)
		return clonePost(p), false, nil
	}
	p.Likes = append(p.Likes, userID)
	return clonePost(p), true, nil
}

func (s *Store) AppendComment(ctx context.Context, postID string, value domain.Comment) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return domain.Comment{}, fmt.Errorf("post %q: %w", postID, domain.ErrNotFound)
	}

	value.ID = uuid.NewString()
	value.CreatedAt = time.Now().UTC()
	p.Comments = append(p.Comments, value)
	return value, nil
}

func (s *Store) CreateMessage(ctx context.Context, value domain.Message) (domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value.ID = uuid.NewString()
	value.CreatedAt = time.Now().UTC()
	s.messages = append(s.messages, value)
	return value, nil
}

// ListConversation returns the messages exchanged between the unordered
// pair {userID, peerID}, oldest first.
func (s *Store) ListConversation(ctx context.Context, userID, peerID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Message
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == peerID) ||
			(m.SenderID == peerID && m.ReceiverID == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) CreateNotification(ctx context.Context, value domain.Notification) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value.ID = uuid.NewString()
	value.CreatedAt = time.Now().UTC()
	value.Read = false

	n := value
	s.notifs[n.ID] = &n
	s.notifOrder = append(s.notifOrder, n.ID)
	return n, nil
}

func (s *Store) NotificationByID(ctx context.Context, id string) (domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notifs[id]
	if !ok {
		return domain.Notification{}, fmt.Errorf("notification %q: %w", id, domain.ErrNotFound)
	}
	return *n, nil
}

// ListNotifications returns the recipient's notifications newest first.
func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Notification
	for i := len(s.notifOrder) - 1; i >= 0; i-- {
		n := s.notifs[s.notifOrder[i]]
		if n.RecipientID == recipientID {
			out = append(out, *n)
		}
	}
	return out, nil
}

// MarkNotificationRead flips read false->true; re-marking is a no-op.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifs[id]
	if !ok {
		return domain.Notification{}, fmt.Errorf("notification %q: %w", id, domain.ErrNotFound)
	}
	n.Read = true
	return *n, nil
}

func (s *Store) CreateAccessToken(ctx context.Context, value domain.AccessToken) (domain.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value.ID = uuid.NewString()
	value.CreatedAt = time.Now().UTC()
	s.tokensByHash[value.TokenHash] = value
	return value, nil
}

func (s *Store) AccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokensByHash[hash]
	if !ok {
		return domain.AccessToken{}, fmt.Errorf("access token: %w", domain.ErrNotFound)
	}
	return t, nil
}

func cloneUser(u *domain.User) domain.User {
	out := *u
	out.Followers = append([]string(nil), u.Followers...)
	out.Following = append([]string(nil), u.Following...)
	return out
}

func clonePost(p *domain.Post) domain.Post {
	out := *p
	out.Likes = append([]string(nil), p.Likes...)
	out.Comments = append([]domain.Comment(nil), p.Comments...)
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
