package viewmodel

import (
	"context"
	"sort"

	"github.com/knotcraft/Pre-production/internal/docstore"
	"github.com/knotcraft/Pre-production/internal/models"
)

// Inbox tabs.
const (
	InboxAll       = "all"
	InboxTasks     = "tasks"
	InboxReminders = "reminders"
)

// Notifications mirrors notifications/{uid}.
type Notifications struct {
	*Mirror[[]models.Notification]
	act actions
}

// NewNotifications creates an unmounted inbox view model for uid.
func NewNotifications(store docstore.Store, uid string, opts Options) *Notifications {
	act := newActions(store, uid, opts)
	return &Notifications{
		Mirror: NewMirror(store, docstore.NotificationsPath(uid), decodeNotifications, act.logger),
		act:    act,
	}
}

func decodeNotifications(snap docstore.Snapshot) ([]models.Notification, []string) {
	list, problems := collect(models.DecodeNotifications(snap))
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, problems
}

// List returns the notifications on one tab, newest first.
func (n *Notifications) List(tab string) []models.Notification {
	all := n.Value()
	var out []models.Notification
	for _, item := range all {
		switch tab {
		case InboxTasks:
			if item.Type != models.NotificationTaskShared {
				continue
			}
		case InboxReminders:
			if item.Type != models.NotificationDueDateReminder {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// UnreadCount counts unread notifications across all tabs.
func (n *Notifications) UnreadCount() int {
	return countUnread(n.Value())
}

func countUnread(list []models.Notification) int {
	count := 0
	for _, item := range list {
		if !item.Read {
			count++
		}
	}
	return count
}

// Open marks a notification read, if it is not already, and returns where it links to.
func (n *Notifications) Open(ctx context.Context, id string) (string, error) {
	for _, item := range n.Value() {
		if item.ID != id {
			continue
		}
		if item.Read {
			return item.Link, nil
		}
		err := n.act.run(ctx, "mark the notification as read", "", func(ctx context.Context) error {
			return n.act.store.Merge(ctx, docstore.Join(n.Path(), id), map[string]any{"read": true})
		})
		return item.Link, err
	}
	return "", n.act.reject("notification", "no such notification")
}

// MarkAllRead flags every unread notification read in one batched update and
// returns how many it changed. With nothing unread it writes nothing.
func (n *Notifications) MarkAllRead(ctx context.Context) (int, error) {
	updates := make(map[string]any)
	for _, item := range n.Value() {
		if !item.Read {
			updates[docstore.Join(n.Path(), item.ID, "read")] = true
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}
	err := n.act.run(ctx, "mark notifications as read", "All notifications marked as read.", func(ctx context.Context) error {
		return n.act.store.BatchedMerge(ctx, updates)
	})
	if err != nil {
		return 0, err
	}
	return len(updates), nil
}
