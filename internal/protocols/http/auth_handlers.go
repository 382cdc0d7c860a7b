package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inkwell/pkg/models"
)

// register handles user registration
func (s *Server) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := s.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "User registered successfully", gin.H{"user": user.Profile()})
}

// login handles user authentication
func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	resp, err := s.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", resp)
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.svc.Auth.GetProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", profile)
}

func (s *Server) me(c *gin.Context) {
	user, _ := GetUser(c)
	respond(c, http.StatusOK, "", user.Profile())
}

func (s *Server) updateMe(c *gin.Context) {
	userID, _ := GetUserID(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	profile, err := s.svc.Auth.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated", profile)
}

// updateUserRole allows admins to change user roles
func (s *Server) updateUserRole(c *gin.Context) {
	userID := c.Param("id")

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}

	if err := s.svc.Auth.UpdateUserRole(c.Request.Context(), userID, req.Role); err != nil {
		respondError(c, err)
		return
	}

	user, err := s.svc.Auth.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User role updated successfully", gin.H{"user": user.Profile()})
}
