package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// GroupHandler manages group-related endpoints.
type GroupHandler struct {
	groupRepo   repositories.GroupRepository
	messageRepo repositories.GroupMessageRepository
	audit       *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, messageRepo repositories.GroupMessageRepository, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		audit:       audit,
	}
}

// CreateGroup handles POST /groups. The caller becomes the group owner.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		MemberIDs   []int  `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), userID, req.Name, req.Description, req.MemberIDs)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"group_id": group.ID})
}

// ListGroups returns groups the caller belongs to, with the caller's role.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := c.GetInt("userID")
	groups, err := h.groupRepo.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroupMembers returns the member roster of a group.
func (h *GroupHandler) GetGroupMembers(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	members, err := h.groupRepo.Members(c.Request.Context(), groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// GetGroupMessages returns messages in the group, excluding ones the
// caller has deleted for themselves.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	msgs, err := h.messageRepo.ListGroupMessages(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
