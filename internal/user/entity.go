// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/carterperez-dev/research-portal/internal/middleware"
)

// User is the portal profile. Role and tier vary independently. Profiles
// are never hard-deleted.
type User struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	DisplayName *string   `db:"display_name"`
	Role        string    `db:"role"`
	Tier        string    `db:"tier"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	// Transient marks a fallback profile built in memory after a
	// persistence failure. It is never written back.
	Transient bool `db:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin && !u.Transient
}

func (u *User) Identity() middleware.Identity {
	return middleware.Identity{
		UserID:    u.ID,
		Role:      u.Role,
		Tier:      u.Tier,
		Transient: u.Transient,
	}
}

const (
	RoleUser  = "user"
	RoleAdmin = middleware.RoleAdmin
)

const (
	TierFree   = "free"
	TierMember = "member"
)
