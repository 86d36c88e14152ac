// AngelaMos | 2026
// entity.go

package event

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeResearchLineView Type = "research_line_view"
	TypeReleaseView      Type = "release_view"
	TypeLogin            Type = "login"
	TypeSignup           Type = "signup"
)

type Event struct {
	ID        string          `db:"id"`
	UserID    *string         `db:"user_id"`
	EventType Type            `db:"event_type"`
	Details   json.RawMessage `db:"details"`
	CreatedAt time.Time       `db:"created_at"`
}

// Entry is what callers hand to the recorder. UserID is empty for anonymous
// views.
type Entry struct {
	UserID  string
	Type    Type
	Details map[string]any
}

type TypeCount struct {
	EventType Type `db:"event_type" json:"event_type"`
	Count     int  `db:"count"      json:"count"`
}
