package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrGroupNotFound = errors.New("group not found")
var ErrNotMember = errors.New("user is not a group member")
var ErrAlreadyMember = errors.New("user is already a member")

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, ownerID int, name string, description string, memberIDs []int) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error)
	Members(ctx context.Context, groupID int) ([]models.GroupMember, error)
	MemberRole(ctx context.Context, groupID int, userID int) (models.Role, error)
	IsMember(ctx context.Context, groupID int, userID int) (bool, error)
	MemberCount(ctx context.Context, groupID int) (int, error)
	AddMember(ctx context.Context, groupID int, userID int) (models.GroupMember, error)
	SetRole(ctx context.Context, groupID int, userID int, role models.Role) error
	RemoveMember(ctx context.Context, groupID int, userID int) error
	TransferOwnership(ctx context.Context, groupID int, fromID int, toID int) error
	DeleteGroup(ctx context.Context, groupID int) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

// CreateGroup creates a group and its members atomically. The creator joins
// as owner, everyone else as plain member.
func (r *GroupRepo) CreateGroup(ctx context.Context, ownerID int, name string, description string, memberIDs []int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO groups (name, description, owner_id) VALUES ($1, $2, $3) RETURNING id, name, description, owner_id, created_at`,
		name, description, ownerID).
		Scan(&group.ID, &group.Name, &group.Description, &group.OwnerID, &group.CreatedAt); err != nil {
		return models.Group{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
		group.ID, ownerID, models.RoleOwner); err != nil {
		return models.Group{}, err
	}

	// dedupe members, the owner is already in
	memberSet := map[int]struct{}{}
	for _, id := range memberIDs {
		if id != ownerID {
			memberSet[id] = struct{}{}
		}
	}
	ids := make([]int, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)`,
			group.ID, id, models.RoleMember); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, name, description, owner_id, created_at FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// ListGroupsForUser returns groups that include the user, with their role.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error) {
	var groups []models.GroupSummary
	err := r.db.SelectContext(ctx, &groups,
		`SELECT g.id, g.name, g.description, g.owner_id, g.created_at, gm.role
         FROM groups g INNER JOIN group_members gm ON gm.group_id = g.id
         WHERE gm.user_id=$1 ORDER BY g.created_at DESC`, userID)
	return groups, err
}

// Members returns the membership collection ordered by join time.
func (r *GroupRepo) Members(ctx context.Context, groupID int) ([]models.GroupMember, error) {
	var members []models.GroupMember
	err := r.db.SelectContext(ctx, &members,
		`SELECT group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 ORDER BY joined_at ASC`, groupID)
	return members, err
}

// MemberRole returns the user's role in the group.
func (r *GroupRepo) MemberRole(ctx context.Context, groupID int, userID int) (models.Role, error) {
	var role models.Role
	err := r.db.GetContext(ctx, &role, `SELECT role FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotMember
	}
	return role, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// MemberCount returns the current number of members.
func (r *GroupRepo) MemberCount(ctx context.Context, groupID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM group_members WHERE group_id=$1`, groupID)
	return count, err
}

// AddMember inserts a plain membership.
func (r *GroupRepo) AddMember(ctx context.Context, groupID int, userID int) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.GetContext(ctx, &member,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3)
         ON CONFLICT (group_id, user_id) DO NOTHING
         RETURNING group_id, user_id, role, joined_at`,
		groupID, userID, models.RoleMember)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMember{}, ErrAlreadyMember
	}
	return member, err
}

// SetRole updates the member's role.
func (r *GroupRepo) SetRole(ctx context.Context, groupID int, userID int, role models.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE group_members SET role=$3 WHERE group_id=$1 AND user_id=$2`, groupID, userID, role)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}

// RemoveMember deletes the membership row.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return nil
}

// TransferOwnership demotes the old owner to admin and promotes the new owner
// in one transaction, so there is never a window with two owners or none.
func (r *GroupRepo) TransferOwnership(ctx context.Context, groupID int, fromID int, toID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE group_members SET role=$3 WHERE group_id=$1 AND user_id=$2 AND role=$4`,
		groupID, fromID, models.RoleAdmin, models.RoleOwner)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		err = ErrNotAuthorized
		return err
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE group_members SET role=$3 WHERE group_id=$1 AND user_id=$2`,
		groupID, toID, models.RoleOwner)
	if err != nil {
		return err
	}
	count, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		err = ErrNotMember
		return err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE groups SET owner_id=$2 WHERE id=$1`, groupID, toID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// DeleteGroup removes the group; memberships and messages cascade.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrGroupNotFound
	}
	return nil
}
