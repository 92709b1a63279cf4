package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"name":     "Jane Q Doe",
		"email":    "jane@example.com",
		"password": "secret123",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User struct {
			Name    string `json:"name"`
			Email   string `json:"email"`
			IsStaff bool   `json:"is_staff"`
			Role    string `json:"role"`
		} `json:"user"`
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Jane Q Doe", resp.User.Name)
	require.Equal(t, "jane@example.com", resp.User.Email)
	require.False(t, resp.User.IsStaff)
	require.Equal(t, models.RoleCustomer, resp.User.Role)
	require.NotEmpty(t, resp.Access)
	require.NotEmpty(t, resp.Refresh)

	// name splits on the first space only
	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "jane@example.com").First(&user).Error)
	require.Equal(t, "Jane", user.FirstName)
	require.Equal(t, "Q Doe", user.LastName)
	require.Equal(t, "jane@example.com", user.Username)
	require.NotEqual(t, "secret123", user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"name":     "Jane Doe",
		"email":    "jane@example.com",
		"password": "secret123",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/register", payload)
	requireHTTPError(t, env.A.Register(c2), http.StatusBadRequest)

	var count int64
	require.NoError(t, env.DB.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]any{
		{"name": "J", "email": "j@example.com", "password": "secret123"},
		{"name": "Jane", "email": "not-an-email", "password": "secret123"},
		{"name": "Jane", "email": "j@example.com", "password": "short"},
		{"email": "j@example.com", "password": "secret123"},
	}
	for _, payload := range cases {
		_, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", payload)
		requireHTTPError(t, env.A.Register(c), http.StatusBadRequest)
	}
}

func TestRegisterAdminEmail(t *testing.T) {
	env := newTestEnv(t)
	env.A.AdminEmail = "owner@markethub.io"

	payload := map[string]any{
		"name":     "Shop Owner",
		"email":    "Owner@MarketHub.io",
		"password": "secret123",
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "Owner@MarketHub.io").First(&user).Error)
	require.Equal(t, models.RoleAdmin, user.Role)
}

func TestRegisterWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"name":         "Jane Doe",
		"email":        "jane@example.com",
		"password":     "secret123",
		"return_token": false,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "user")
	require.NotContains(t, resp, "access")
	require.NotContains(t, resp, "refresh")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("jane@example.com", models.RoleCustomer)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "password",
	})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "user")
	require.Contains(t, resp, "access")
	require.Contains(t, resp, "refresh")

	// refresh token persisted for later revocation
	var count int64
	require.NoError(t, env.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestLoginBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("jane@example.com", models.RoleCustomer)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong_password",
	})
	requireHTTPError(t, env.A.Login(c), http.StatusUnauthorized)

	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password",
	})
	requireHTTPError(t, env.A.Login(c2), http.StatusUnauthorized)
}

func TestToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("jane@example.com", models.RoleCustomer)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/token", map[string]string{
		"email":    "jane@example.com",
		"password": "password",
	})
	require.NoError(t, env.A.Token(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp, "access")
	require.Contains(t, resp, "refresh")
	require.NotContains(t, resp, "user")
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("jane@example.com", models.RoleCustomer)

	_, refresh, err := env.Tokens.IssuePair(user.ID, user.Role)
	require.NoError(t, err)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh": refresh,
	})
	require.NoError(t, env.A.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Access)
	require.NotEmpty(t, resp.Refresh)
	require.NotEqual(t, refresh, resp.Refresh)

	// the presented token is revoked; replaying it fails
	_, c2 := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh": refresh,
	})
	requireHTTPError(t, env.A.Refresh(c2), http.StatusUnauthorized)
}

func TestRefreshGarbage(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/auth/refresh", map[string]string{
		"refresh": "not.a.token",
	})
	requireHTTPError(t, env.A.Refresh(c), http.StatusUnauthorized)
}
