package scheduler

import (
	"sort"
	"time"
)

// Booking is the time footprint of an appointment used for overlap checks.
type Booking struct {
	ID           string
	Participants []string
	Start        time.Time
	End          time.Time
}

// Conflict details an overlapping booking that callers can present to users.
type Conflict struct {
	WithBookingID string
	Participant   string
}

// DetectConflicts identifies bookings that share a participant with the
// candidate and overlap it in time. Touching intervals do not overlap.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	if !candidate.End.After(candidate.Start) {
		return nil
	}

	participants := make(map[string]struct{}, len(candidate.Participants))
	for _, id := range candidate.Participants {
		if id != "" {
			participants[id] = struct{}{}
		}
	}

	var conflicts []Conflict
	for _, booking := range existing {
		if booking.ID == candidate.ID {
			continue
		}
		if !booking.Start.Before(candidate.End) || !candidate.Start.Before(booking.End) {
			continue
		}
		for _, id := range booking.Participants {
			if _, ok := participants[id]; ok {
				conflicts = append(conflicts, Conflict{WithBookingID: booking.ID, Participant: id})
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].WithBookingID == conflicts[j].WithBookingID {
			return conflicts[i].Participant < conflicts[j].Participant
		}
		return conflicts[i].WithBookingID < conflicts[j].WithBookingID
	})
	return conflicts
}
