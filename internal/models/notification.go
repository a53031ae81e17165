package models

import (
	"fmt"
	"time"
)

// NotificationType classifies inbox items.
type NotificationType string

const (
	// NotificationTaskShared is raised when someone shares a task with the user.
	NotificationTaskShared NotificationType = "TASK_SHARED"
	// NotificationDueDateReminder is raised the day before an incomplete task is due.
	NotificationDueDateReminder NotificationType = "DUE_DATE_REMINDER"
)

// Notification is one inbox item at notifications/{uid}/{id}. Only Read ever changes.
type Notification struct {
	ID        string
	Message   string
	Link      string
	Read      bool
	CreatedAt time.Time
	Type      NotificationType
	RelatedID string
}

// Fields encodes the complete notification record.
func (n Notification) Fields() map[string]any {
	f := map[string]any{
		"message":   n.Message,
		"link":      n.Link,
		"read":      n.Read,
		"createdAt": n.CreatedAt.UTC().Format(time.RFC3339Nano),
		"type":      string(n.Type),
	}
	if n.RelatedID != "" {
		f["relatedId"] = n.RelatedID
	}
	return f
}

// NotificationRef is the part of an inbox record needed to recognise what it is about.
type NotificationRef struct {
	ID        string
	Type      NotificationType
	RelatedID string
	CreatedAt time.Time
}

// DecodeNotificationRefs reads type, relatedId and createdAt from every inbox record
// that has them, even when other fields are malformed. Records without a readable
// type or a parseable createdAt are skipped.
func DecodeNotificationRefs(snap any) []NotificationRef {
	m, ok := snap.(map[string]any)
	if !ok {
		return nil
	}
	refs := make([]NotificationRef, 0, len(m))
	for id, v := range m {
		r, ok := asRecord(v)
		if !ok {
			continue
		}
		typ, errType := r.requiredString("type")
		created, errCreated := r.requiredString("createdAt")
		related, errRelated := r.optionalString("relatedId")
		if firstErr(errType, errCreated, errRelated) != nil {
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			continue
		}
		refs = append(refs, NotificationRef{ID: id, Type: NotificationType(typ), RelatedID: related, CreatedAt: at})
	}
	return refs
}

// DecodeNotifications decodes an inbox snapshot.
func DecodeNotifications(snap any) []Result[Notification] {
	return decodeCollection(snap, func(id string, r record) (Notification, error) {
		message, errMessage := r.requiredString("message")
		link, errLink := r.optionalString("link")
		read, errRead := r.optionalBool("read")
		created, errCreated := r.requiredString("createdAt")
		typ, errType := r.optionalString("type")
		related, errRelated := r.optionalString("relatedId")
		if err := firstErr(errMessage, errLink, errRead, errCreated, errType, errRelated); err != nil {
			return Notification{}, err
		}
		at, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return Notification{}, fmt.Errorf("createdAt %q is not an RFC 3339 timestamp", created)
		}
		return Notification{
			ID:        id,
			Message:   message,
			Link:      link,
			Read:      read,
			CreatedAt: at,
			Type:      NotificationType(typ),
			RelatedID: related,
		}, nil
	})
}
