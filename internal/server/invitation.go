package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invitationdomain "github.com/smallbiznis/taskflow/internal/invitation/domain"
)

type inviteUserRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,invite_role"`
}

type acceptInvitationRequest struct {
	Token string `json:"token" binding:"required,len=128,hex_token"`
	Role  string `json:"role" binding:"required,invite_role"`
}

type inviteUserResponse struct {
	Invitation invitationdomain.InvitationView `json:"invitation"`
	Token      string                          `json:"token"`
}

// InviteUser returns the raw invitation token in the body so the inviter can
// share it out of band.
func (s *Server) InviteUser(c *gin.Context) {
	userID, orgID, ok := s.orgRequest(c)
	if !ok {
		return
	}

	var req inviteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	result, err := s.invitationSvc.InviteUser(c.Request.Context(), invitationdomain.InviteRequest{
		OrgID:     orgID,
		InviterID: userID,
		Email:     strings.TrimSpace(req.Email),
		Role:      req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, inviteUserResponse{
		Invitation: result.Invitation.View(),
		Token:      result.Token,
	})
}

func (s *Server) AcceptInvitation(c *gin.Context) {
	userID, orgID, ok := s.orgRequest(c)
	if !ok {
		return
	}

	var req acceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	if err := s.invitationSvc.AcceptInvitation(c.Request.Context(), invitationdomain.AcceptRequest{
		OrgID:         orgID,
		UserID:        userID,
		Token:         req.Token,
		RequestedRole: req.Role,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
