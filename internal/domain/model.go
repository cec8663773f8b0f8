package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Followers    []string  `json:"followers"`
	Following    []string  `json:"following"`
	CreatedAt    time.Time `json:"created_at"`
}

type Post struct {
	ID       string    `json:"id"`
	AuthorID string    `json:"author_id"`
	Caption  string    `json:"caption"`
	MediaRef string    `json:"media_ref,omitempty"`
	Likes    []string  `json:"likes"`
	Comments []Comment `json:"comments"`
	// Seq is assigned by the store in insertion order and breaks
	// created-at ties in the feed.
	Seq       uint64    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationKind string

const (
	NotifyLike    NotificationKind = "like"
	NotifyComment NotificationKind = "comment"
	NotifyFollow  NotificationKind = "follow"
	NotifyMessage NotificationKind = "message"
)

type Notification struct {
	ID            string           `json:"id"`
	RecipientID   string           `json:"recipient_id"`
	Kind          NotificationKind `json:"kind"`
	ActorID       string           `json:"actor_id"`
	ActorUsername string           `json:"actor_username"`
	PostID        string           `json:"post_id,omitempty"`
	Read          bool             `json:"read"`
	CreatedAt     time.Time        `json:"created_at"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type AccessToken struct {
	ID        string
	UserID    string
	Name      string
	TokenHash string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type Identity struct {
	User User
}

// Event kinds pushed to live sessions.
const (
	EventPostCreated     = "post-created"
	EventNewNotification = "new-notification"
	EventNewMessage      = "new-message"
)

type FollowResult struct {
	Following      bool `json:"following"`
	FollowersCount int  `json:"followers_count"`
}
