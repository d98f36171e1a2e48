package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

type updateOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	resp, err := s.orgSvc.Create(c.Request.Context(), userID, organizationdomain.CreateOrganizationRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListOrganizations(c *gin.Context) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	items, err := s.orgSvc.ListOrganizationsByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetOrganization(c *gin.Context) {
	userID, orgID, ok := s.orgRequest(c)
	if !ok {
		return
	}

	resp, err := s.orgSvc.Get(c.Request.Context(), orgID, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateOrganization(c *gin.Context) {
	userID, orgID, ok := s.orgRequest(c)
	if !ok {
		return
	}

	var req updateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	if err := s.orgSvc.Update(c.Request.Context(), orgID, userID, organizationdomain.UpdateOrganizationRequest{
		Name: strings.TrimSpace(req.Name),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) DeleteOrganization(c *gin.Context) {
	userID, orgID, ok := s.orgRequest(c)
	if !ok {
		return
	}

	if err := s.orgSvc.Delete(c.Request.Context(), orgID, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// orgRequest resolves the caller and the :orgId path parameter, aborting
// the request when either is missing.
func (s *Server) orgRequest(c *gin.Context) (snowflake.ID, snowflake.ID, bool) {
	userID, ok := s.userIDFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return 0, 0, false
	}

	orgID, err := snowflake.ParseString(strings.TrimSpace(c.Param("orgId")))
	if err != nil || orgID <= 0 {
		AbortWithError(c, organizationdomain.ErrInvalidOrganization)
		return 0, 0, false
	}

	return userID, orgID, true
}
