package server

import (
	"strings"

	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// sessionPayload is the body returned by every endpoint that starts a session.
// The refresh token travels only in its cookie.
type sessionPayload struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

// Register handles POST /api/v1/users/register
// @Summary Register a user
// @Description Create an account with an avatar and optional cover image, then start a session
// @Tags users
// @Accept mpfd
// @Produce json
// @Param fullName formData string true "Full name"
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} models.APIResponse{data=sessionPayload}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email" form:"email"`
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	avatarPath, err := s.saveUpload(c, "avatar", "image")
	if err != nil {
		return err
	}
	coverPath, err := s.saveUpload(c, "coverImage", "image")
	if err != nil {
		removeTemp(c, avatarPath)
		return err
	}
	defer removeTemp(c, avatarPath, coverPath)

	result, err := s.sessionService.Register(c.UserContext(), service.RegisterInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		return err
	}

	s.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	return models.Respond(c, fiber.StatusCreated, sessionPayload{
		User:        result.User,
		AccessToken: result.AccessToken,
	}, "User registered successfully")
}

// Login handles POST /api/v1/users/login
// @Summary Log in
// @Description Authenticate with email or username and a password
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{email=string,username=string,password=string} true "Login credentials"
// @Success 200 {object} models.APIResponse{data=sessionPayload}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email" form:"email"`
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.sessionService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	s.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	return models.Respond(c, fiber.StatusOK, sessionPayload{
		User:        result.User,
		AccessToken: result.AccessToken,
	}, "User logged in successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token
// @Summary Rotate tokens
// @Description Exchange the refresh token cookie (or body field) for a new token pair
// @Tags users
// @Produce json
// @Success 200 {object} models.APIResponse{data=object{accessToken=string}}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/refresh-token [post]
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	token := c.Cookies(refreshTokenCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		if err := parseBody(c, &req); err != nil {
			return err
		}
		token = strings.TrimSpace(req.RefreshToken)
	}

	result, err := s.sessionService.Refresh(c.UserContext(), token)
	if err != nil {
		return err
	}

	s.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"accessToken": result.AccessToken,
	}, "Access token refreshed")
}

// Logout handles POST /api/v1/users/logout
// @Summary Log out
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessionService.Logout(c.UserContext(), middleware.CurrentUserID(c), middleware.CurrentClaims(c)); err != nil {
		return err
	}
	s.clearSessionCookies(c)
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "User logged out")
}

// ChangePassword handles POST|PATCH /api/v1/users/change-password
// @Summary Change password
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{oldPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/change-password [patch]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword" form:"oldPassword"`
		NewPassword string `json:"newPassword" form:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	err := s.sessionService.ChangePassword(c.UserContext(), service.ChangePasswordInput{
		UserID:      middleware.CurrentUserID(c),
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Password changed successfully")
}

// GetCurrentUser handles GET /api/v1/users/current-user
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/current-user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	user, err := s.profileService.GetCurrentUser(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account
// @Summary Update account details
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{fullName=string,email=string} true "Account details"
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/update-account [patch]
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req struct {
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email" form:"email"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.profileService.UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		UserID:   middleware.CurrentUserID(c),
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar
// @Summary Replace avatar
// @Tags users
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} models.APIResponse{data=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /users/avatar [patch]
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	path, err := s.saveUpload(c, "avatar", "image")
	if err != nil {
		return err
	}
	defer removeTemp(c, path)

	user, err := s.profileService.UpdateAvatar(c.UserContext(), middleware.CurrentUserID(c), path)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, user, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image
// @Summary Replace cover image
// @Tags users
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} models.APIResponse{data=models.User}
// @Router /users/cover-image [patch]
func (s *Server) UpdateCoverImage(c *fiber.Ctx) error {
	path, err := s.saveUpload(c, "coverImage", "image")
	if err != nil {
		return err
	}
	defer removeTemp(c, path)

	user, err := s.profileService.UpdateCoverImage(c.UserContext(), middleware.CurrentUserID(c), path)
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, user, "Cover image updated successfully")
}

// GetChannelProfile handles GET /api/v1/users/c/:username
// @Summary Channel profile
// @Description Public profile with subscriber counts and whether the caller is subscribed
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param username path string true "Channel username"
// @Success 200 {object} models.APIResponse{data=models.ChannelProfile}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/c/{username} [get]
func (s *Server) GetChannelProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetChannelProfile(c.UserContext(), c.Params("username"), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, profile, "User channel fetched successfully")
}

// GetWatchHistory handles GET /api/v1/users/history
// @Summary Watch history
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Video}
// @Router /users/history [get]
func (s *Server) GetWatchHistory(c *fiber.Ctx) error {
	history, err := s.profileService.GetWatchHistory(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return models.Respond(c, fiber.StatusOK, history, "Watch history fetched successfully")
}
