package service

import (
	"math"
	"time"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// SessionWindow is the platform's rolling reply window: outbound session
// messages are only permitted within 24 hours of the user's latest inbound
// message.
const SessionWindow = 24 * time.Hour

// WindowStatus computes whether the reply window is open and how many whole
// hours remain. Pure function; ticket detail views and reply validation both
// go through it so the threshold lives in one place.
//
// The cutoff is inclusive: at exactly 24 hours the window is already expired.
// A nil lastInboundAt (no inbound ever recorded) means no window.
func WindowStatus(lastInboundAt *time.Time, now time.Time) domain.WindowStatus {
	if lastInboundAt == nil {
		return domain.WindowStatus{}
	}
	elapsed := now.Sub(*lastInboundAt)
	if elapsed >= SessionWindow {
		return domain.WindowStatus{}
	}
	remaining := int(math.Ceil((SessionWindow - elapsed).Hours()))
	if remaining < 0 {
		remaining = 0
	}
	return domain.WindowStatus{Active: true, HoursRemaining: remaining}
}
