package domain

import "context"

// EntityStore owns every entity. Collaborators hold ids, never
// references into the store's collections; each mutation is a single
// atomic step with no observable intermediate state.
type EntityStore interface {
	CreateUser(ctx context.Context, value User) (User, error)
	UserByID(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByEmailOrUsername(ctx context.Context, q string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ToggleFollow(ctx context.Context, followerID, targetID string) (following bool, followersCount int, err error)

	CreatePost(ctx context.Context, value Post) (Post, error)
	PostByID(ctx context.Context, id string) (Post, error)
	ListPosts(ctx context.Context) ([]Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (Post, bool, error)
	AppendComment(ctx context.Context, postID string, value Comment) (Comment, error)

	CreateMessage(ctx context.Context, value Message) (Message, error)
	ListConversation(ctx context.Context, userID, peerID string) ([]Message, error)

	CreateNotification(ctx context.Context, value Notification) (Notification, error)
	NotificationByID(ctx context.Context, id string) (Notification, error)
	ListNotifications(ctx context.Context, recipientID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (Notification, error)

	CreateAccessToken(ctx context.Context, value AccessToken) (AccessToken, error)
	AccessTokenByHash(ctx context.Context, hash string) (AccessToken, error)
}

// EventBroker fans events out to live sessions. Delivery is
// fire-and-forget: no session registered for a recipient means the
// event is dropped, which is not an error.
type EventBroker interface {
	DeliverToUser(userID, kind string, payload any)
	Broadcast(kind string, payload any)
}
