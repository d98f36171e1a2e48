package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=50"`
	LastName string `json:"lastName" binding:"required,min=1,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=100,password_complexity"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (s *Server) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), authdomain.RegisterRequest{
		Name:     strings.TrimSpace(req.Name),
		LastName: strings.TrimSpace(req.LastName),
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user.View())
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	pair, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, pair.RefreshToken)
	c.JSON(http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

func (s *Server) RefreshToken(c *gin.Context) {
	raw, _ := s.sessions.ReadToken(c)

	pair, err := s.authsvc.Refresh(c.Request.Context(), raw)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, pair.RefreshToken)
	c.JSON(http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Logout always clears the cookie, even when the stored session is already gone.
func (s *Server) Logout(c *gin.Context) {
	raw, _ := s.sessions.ReadToken(c)
	s.sessions.Clear(c)

	if err := s.authsvc.Logout(c.Request.Context(), raw); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
