// Package permissions holds the role-based permission matrix for group
// actions. Handlers consult it instead of scattering role conditionals.
package permissions

import "messenger-service/internal/models"

// Action is a mutating group operation subject to the matrix.
type Action string

const (
	ActionAddMember         Action = "add_member"
	ActionRemoveMember      Action = "remove_member"
	ActionPromoteMember     Action = "promote_member"
	ActionDemoteMember      Action = "demote_member"
	ActionTransferOwnership Action = "transfer_ownership"
	ActionDeleteGroup       Action = "delete_group"
	ActionLeaveGroup        Action = "leave_group"
)

// matrix is pure data: role x action -> allowed.
var matrix = map[models.Role]map[Action]bool{
	models.RoleOwner: {
		ActionAddMember:         true,
		ActionRemoveMember:      true,
		ActionPromoteMember:     true,
		ActionDemoteMember:      true,
		ActionTransferOwnership: true,
		ActionDeleteGroup:       true,
		// the owner must transfer ownership before leaving
		ActionLeaveGroup: false,
	},
	models.RoleAdmin: {
		ActionAddMember:    true,
		ActionRemoveMember: true,
		ActionLeaveGroup:   true,
	},
	models.RoleMember: {
		ActionLeaveGroup: true,
	},
}

// Allows reports whether the role may perform the action.
func Allows(role models.Role, action Action) bool {
	return matrix[role][action]
}

// CanRemove reports whether a requester role may remove a member holding the
// target role. The owner can remove any non-owner; admins only plain members.
// Nobody removes the owner.
func CanRemove(requester models.Role, target models.Role) bool {
	if target == models.RoleOwner {
		return false
	}
	switch requester {
	case models.RoleOwner:
		return true
	case models.RoleAdmin:
		return target == models.RoleMember
	default:
		return false
	}
}
