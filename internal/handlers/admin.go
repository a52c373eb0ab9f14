package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell/api/internal/middleware"
	"inkwell/api/internal/models"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	users, err := h.authService.ListUsers(c.Request.Context(), claims.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]userResponse, 0, len(users))
	for _, user := range users {
		items = append(items, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": items})
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) AdminUpdateUserRole(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	targetID := c.Param("userId")
	user, err := h.authService.UpdateUserRole(c.Request.Context(), claims.UserID, targetID, models.UserRole(req.Role))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h HandlerSet) AdminDeleteUser(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	targetID := c.Param("userId")
	if err := h.authService.DeleteUserByAdmin(c.Request.Context(), claims.UserID, targetID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
