package handlers

import (
	"github.com/gin-gonic/gin"

	"quizdeck/middleware"
	"quizdeck/pkg/apperr"
	"quizdeck/pkg/response"
	"quizdeck/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apperr.InvalidArg("invalid request body"))
		return
	}
	req.Normalize()
	if details := req.Violations(); details != nil {
		response.Err(c, apperr.Validation("validation failed", details))
		return
	}

	res, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apperr.InvalidArg("invalid request body"))
		return
	}
	req.Normalize()
	if details := req.Violations(); details != nil {
		response.Err(c, apperr.Validation("validation failed", details))
		return
	}

	res, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, res)
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, profile)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.AbortUnauthorized(c, "not authenticated")
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Err(c, apperr.InvalidArg("invalid request body"))
		return
	}
	req.Normalize()
	if details := req.Violations(); details != nil {
		response.Err(c, apperr.Validation("validation failed", details))
		return
	}

	updated, err := h.authService.UpdateProfile(c.Request.Context(), user.ID, &req)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, updated)
}
