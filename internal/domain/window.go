package domain

// WindowStatus is the computed state of a user's 24-hour reply window.
type WindowStatus struct {
	Active         bool
	HoursRemaining int
}
