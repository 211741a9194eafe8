package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/mentora-service/internal/services"
	"github.com/SAP-F-2025/mentora-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// Register creates a local account and returns an access token
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.RegisterRequest true "Account data"
// @Success 201 {object} services.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Registering user", "username", req.Username)

	resp, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges a username or email and password for an access token
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.LoginRequest true "Credentials"
// @Success 200 {object} services.TokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe returns the caller's profile
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateInterests replaces the caller's interests
// @Summary Update interests
// @Tags users
// @Accept json
// @Produce json
// @Param interests body services.UpdateInterestsRequest true "Interest names"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Router /users/me/interests [put]
func (h *UserHandler) UpdateInterests(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req services.UpdateInterestsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateInterests(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListInterests returns the interest catalog
// @Summary List interests
// @Tags users
// @Produce json
// @Success 200 {array} models.Interest
// @Router /interests [get]
func (h *UserHandler) ListInterests(c *gin.Context) {
	interests, err := h.userService.ListInterests(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, interests)
}
