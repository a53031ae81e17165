// Package models defines the records the dashboard keeps in the document store.
//
// # Records
//
// Every user-owned record lives under users/{uid}/... and is keyed by a generated id:
//   - UserProfile: the onboarding record; its absence means a new user
//   - BudgetData / Category / Expense: budget total and per-category spend
//   - Guest: one invitee with side and RSVP status
//   - Task: one checklist item with a due date
//   - Notification: one inbox item under notifications/{uid}
//   - Vendor: one entry of the global, read-only catalog
//
// # Decoding
//
// Snapshots arrive as untyped trees. Each Decode function validates the shape and
// returns one Result per child record, so a malformed record is reported and dropped
// instead of being trusted.
//
// # Encoding
//
// Records are written as plain map[string]any values (see the Fields methods).
// Record creation writes the complete record; edits write only changed fields.
package models
