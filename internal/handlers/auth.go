package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/hash"
	"github.com/markethub/backend/internal/models"
	"github.com/markethub/backend/internal/mykafka"
	"github.com/markethub/backend/internal/service/token"
)

type AuthHandler struct {
	DB         *gorm.DB
	Tokens     *token.TokenService
	Producer   *mykafka.Producer
	AdminEmail string
}

type registerRequest struct {
	Name        string `json:"name"     validate:"required,min=2"`
	Email       string `json:"email"    validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	ReturnToken *bool  `json:"return_token"`
}

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func userToDict(u *models.User) echo.Map {
	return echo.Map{
		"id":       strconv.FormatUint(uint64(u.ID), 10),
		"name":     u.FullName(),
		"email":    u.Email,
		"is_staff": u.IsStaff(),
		"role":     u.Role,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user with this email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		Email:        req.Email,
		Username:     req.Email,
		PasswordHash: pwHash,
		Role:         models.RoleCustomer,
	}

	// The display name splits on the first space into first/last name.
	if first, rest, found := strings.Cut(req.Name, " "); found {
		user.FirstName = first
		user.LastName = rest
	} else {
		user.FirstName = req.Name
	}

	if h.AdminEmail != "" && strings.EqualFold(req.Email, h.AdminEmail) {
		user.Role = models.RoleAdmin
	}

	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return echo.NewHTTPError(http.StatusBadRequest, "user with this email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	if req.ReturnToken != nil && !*req.ReturnToken {
		return c.JSON(http.StatusCreated, echo.Map{"user": userToDict(&user)})
	}

	access, refresh, err := h.Tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user":    userToDict(&user),
		"access":  access,
		"refresh": refresh,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	user, err := h.authenticate(c)
	if err != nil {
		return err
	}

	access, refresh, err := h.Tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user":    userToDict(user),
		"access":  access,
		"refresh": refresh,
	})
}

// Token issues a bare access/refresh pair for the same credentials as
// Login, without the user envelope.
func (h *AuthHandler) Token(c echo.Context) error {
	user, err := h.authenticate(c)
	if err != nil {
		return err
	}

	access, refresh, err := h.Tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access":  access,
		"refresh": refresh,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	access, refresh, err := h.Tokens.Rotate(req.Refresh)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access":  access,
		"refresh": refresh,
	})
}

// authenticate resolves the email to the internal username, falling
// back to using the email as the username, and checks the password.
func (h *AuthHandler) authenticate(c echo.Context) (*models.User, error) {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}

	var user models.User
	err := h.DB.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = h.DB.Where("username = ?", req.Email).First(&user).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	return &user, nil
}
