// AngelaMos | 2026
// dto.go

package audit

import (
	"encoding/json"
	"time"
)

type ListParams struct {
	Page       int
	PageSize   int
	EntityType string
	ActorID    string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type LogResponse struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actor_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Details    json.RawMessage `json:"details"`
	CreatedAt  time.Time       `json:"created_at"`
}

func ToLogResponseList(logs []Log) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, LogResponse(l))
	}
	return out
}
