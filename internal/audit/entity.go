// AngelaMos | 2026
// entity.go

package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionCreateResearchLine     = "create_research_line"
	ActionUpdateResearchLine     = "update_research_line"
	ActionDeleteResearchLine     = "delete_research_line"
	ActionActivateResearchLine   = "activate_research_line"
	ActionDeactivateResearchLine = "deactivate_research_line"
	ActionCreateRelease          = "create_release"
	ActionPublishRelease         = "publish_release"
	ActionAddReleaseDocument     = "add_release_document"
	ActionUpdateUser             = "update_user"
	ActionUpdateUserRole         = "update_user_role"
	ActionUpdateUserTier         = "update_user_tier"
)

const (
	EntityResearchLine    = "research_line"
	EntityRelease         = "release"
	EntityReleaseDocument = "release_document"
	EntityUser            = "user"
)

type Log struct {
	ID         string          `db:"id"`
	ActorID    string          `db:"actor_id"`
	Action     string          `db:"action"`
	EntityType string          `db:"entity_type"`
	EntityID   string          `db:"entity_id"`
	Details    json.RawMessage `db:"details"`
	CreatedAt  time.Time       `db:"created_at"`
}

type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]any
}
