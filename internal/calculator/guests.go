package calculator

import (
	"strings"

	"github.com/knotcraft/Pre-production/internal/models"
)

// FilterAll disables a side or status filter.
const FilterAll = "all"

// GuestSummary counts RSVP states across the whole guest list.
type GuestSummary struct {
	Total     int
	Confirmed int
	Pending   int
	Declined  int
}

// SummarizeGuests counts over the full, unfiltered list.
func SummarizeGuests(guests []models.Guest) GuestSummary {
	s := GuestSummary{Total: len(guests)}
	for _, g := range guests {
		switch g.Status {
		case models.StatusConfirmed:
			s.Confirmed++
		case models.StatusDeclined:
			s.Declined++
		default:
			s.Pending++
		}
	}
	return s
}

// GuestFilter is the guest page's filter bar state. Empty fields match everyone.
type GuestFilter struct {
	Side   string // "all", "bride", "groom" or "both"
	Status string // "all", "pending", "confirmed" or "declined"
	Search string
}

// MatchSide reports whether g passes a side filter. Guests on both sides match
// a bride or groom filter.
func MatchSide(g models.Guest, side string) bool {
	switch side {
	case "", FilterAll:
		return true
	case string(models.SideBride), string(models.SideGroom):
		return string(g.Side) == side || g.Side == models.SideBoth
	default:
		return string(g.Side) == side
	}
}

// MatchStatus reports whether g passes a status filter.
func MatchStatus(g models.Guest, status string) bool {
	return status == "" || status == FilterAll || string(g.Status) == status
}

// MatchSearch is a case-insensitive substring match over name and group.
func MatchSearch(g models.Guest, search string) bool {
	q := strings.ToLower(strings.TrimSpace(search))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(g.Name), q) || strings.Contains(strings.ToLower(g.Group), q)
}

// Matches applies side, then status, then search.
func (f GuestFilter) Matches(g models.Guest) bool {
	return MatchSide(g, f.Side) && MatchStatus(g, f.Status) && MatchSearch(g, f.Search)
}

// FilterGuests returns the guests that pass f, keeping order.
func FilterGuests(guests []models.Guest, f GuestFilter) []models.Guest {
	out := make([]models.Guest, 0, len(guests))
	for _, g := range guests {
		if f.Matches(g) {
			out = append(out, g)
		}
	}
	return out
}
