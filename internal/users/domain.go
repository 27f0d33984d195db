package users

import (
	"time"

	"github.com/clearvat/clearvat/internal/tenancy"
)

// User represents a team member or client account within an organization.
type User struct {
	ID           string       `json:"id"`
	OrgID        string       `json:"org_id"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	Role         tenancy.Role `json:"role"`
	IsActive     bool         `json:"is_active"`
	IsTeamMember bool         `json:"is_team_member"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
