// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

// Subscription is keyed by (UserID, ResearchLineID). There is at most one
// row per pair; resubscribing reactivates it.
type Subscription struct {
	UserID         string     `db:"user_id"`
	ResearchLineID string     `db:"research_line_id"`
	IsActive       bool       `db:"is_active"`
	SubscribedAt   time.Time  `db:"subscribed_at"`
	UnsubscribedAt *time.Time `db:"unsubscribed_at"`
}

// ActiveLine is an active subscription joined with its research line.
type ActiveLine struct {
	ResearchLineID string    `db:"research_line_id" json:"research_line_id"`
	Title          string    `db:"title"            json:"title"`
	Slug           string    `db:"slug"             json:"slug"`
	SubscribedAt   time.Time `db:"subscribed_at"    json:"subscribed_at"`
}
