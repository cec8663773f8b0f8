package application

import (
	"context"
	"log"

	"github.com/Eroo144/instaclone/internal/domain"
)

// Notifier is the single place notification records come from. Callers
// invoke it unconditionally on interaction events; the self-suppression
// rule lives here so no call site can get it wrong.
type Notifier struct {
	store  domain.EntityStore
	broker domain.EventBroker
}

func NewNotifier(store domain.EntityStore, broker domain.EventBroker) *Notifier {
	return &Notifier{store: store, broker: broker}
}

// Notify stores a notification for recipientID and delivers it to the
// recipient's open sessions. When the recipient is the actor the call
// is a complete no-op: nothing stored, nothing delivered. Notification
// failures never fail the interaction that triggered them.
func (n *Notifier) Notify(ctx context.Context, recipientID string, kind domain.NotificationKind, actorID, postID string) {
	if recipientID == "" || recipientID == actorID {
		return
	}

	actorUsername := ""
	if actor, err := n.store.UserByID(ctx, actorID); err == nil {
		actorUsername = actor.Username
	}

	notif, err := n.store.CreateNotification(ctx, domain.Notification{
		RecipientID:   recipientID,
		Kind:          kind,
		ActorID:       actorID,
		ActorUsername: actorUsername,
		PostID:        postID,
	})
	if err != nil {
		log.Printf("notify %s -> %s failed: %v", kind, recipientID, err)
		return
	}

	n.broker.DeliverToUser(recipientID, domain.EventNewNotification, notif)
}
