package models

import (
	"fmt"
	"strings"
)

// Side records which partner invited a guest.
type Side string

const (
	SideBride Side = "bride"
	SideGroom Side = "groom"
	SideBoth  Side = "both"
)

// ParseSide accepts a side name case-insensitively.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBride:
		return SideBride, true
	case SideGroom:
		return SideGroom, true
	case SideBoth:
		return SideBoth, true
	}
	return "", false
}

// RSVPStatus is a guest's response. New guests start pending; only explicit edits change it.
type RSVPStatus string

const (
	StatusPending   RSVPStatus = "pending"
	StatusConfirmed RSVPStatus = "confirmed"
	StatusDeclined  RSVPStatus = "declined"
)

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (RSVPStatus, bool) {
	switch RSVPStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusDeclined:
		return StatusDeclined, true
	}
	return "", false
}

// Guest is one invitee at users/{uid}/guests/{id}.
type Guest struct {
	ID     string
	Name   string
	Side   Side
	Status RSVPStatus
	Group  string
	Email  string
	Notes  string
}

// Fields encodes the complete guest record.
func (g Guest) Fields() map[string]any {
	f := map[string]any{
		"name":   g.Name,
		"side":   string(g.Side),
		"status": string(g.Status),
	}
	if g.Group != "" {
		f["group"] = g.Group
	}
	if g.Email != "" {
		f["email"] = g.Email
	}
	if g.Notes != "" {
		f["notes"] = g.Notes
	}
	return f
}

// DecodeGuests decodes the guest collection.
func DecodeGuests(snap any) []Result[Guest] {
	return decodeCollection(snap, func(id string, r record) (Guest, error) {
		name, errName := r.requiredString("name")
		side, errSide := r.requiredString("side")
		status, errStatus := r.optionalString("status")
		group, errGroup := r.optionalString("group")
		email, errEmail := r.optionalString("email")
		notes, errNotes := r.optionalString("notes")
		if err := firstErr(errName, errSide, errStatus, errGroup, errEmail, errNotes); err != nil {
			return Guest{}, err
		}
		g := Guest{ID: id, Name: name, Group: group, Email: email, Notes: notes, Status: StatusPending}
		var ok bool
		if g.Side, ok = ParseSide(side); !ok {
			return Guest{}, fmt.Errorf("unknown side %q", side)
		}
		if status != "" {
			if g.Status, ok = ParseStatus(status); !ok {
				return Guest{}, fmt.Errorf("unknown status %q", status)
			}
		}
		return g, nil
	})
}
