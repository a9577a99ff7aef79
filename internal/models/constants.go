package models

const (
	RoleArtist = "artist"
	RoleVenue  = "venue"
	RoleAdmin  = "admin"
)

const (
	BookingPending   = "pending"
	BookingAccepted  = "accepted"
	BookingDeclined  = "declined"
	BookingCancelled = "cancelled"
)

const (
	EventRequested = "requested"
	EventPublished = "published"
	EventDeclined  = "declined"
	EventCancelled = "cancelled"
)

const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
)

// CommittedBookingStatuses lists the booking statuses that occupy an artist's calendar.
var CommittedBookingStatuses = []string{BookingPending, BookingAccepted}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleArtist, RoleVenue, RoleAdmin:
		return true
	default:
		return false
	}
}
