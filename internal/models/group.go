package models

import "time"

// Role of a member within a group.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// Group represents a chat group. OwnerID mirrors the single member holding
// RoleOwner and only changes through an ownership transfer.
type Group struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	OwnerID     int       `db:"owner_id" json:"owner_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GroupMember is one membership row. Memberships have no lifecycle outside
// their group.
type GroupMember struct {
	GroupID  int       `db:"group_id" json:"group_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	Role     Role      `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// GroupSummary is the API view of a group for one user.
type GroupSummary struct {
	Group
	Role Role `db:"role" json:"role"`
}
