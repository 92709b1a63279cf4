package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/markethub/backend/internal/hash"
	"github.com/markethub/backend/internal/models"
	"github.com/markethub/backend/internal/mykafka"
	"github.com/markethub/backend/internal/service/token"
	"github.com/markethub/backend/internal/validate"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.TokenService
	A      *AuthHandler
	P      *ProductHandler
	C      *CartHandler
	O      *OrderHandler
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte("test_jwt_secret"),
		RefreshSecret: []byte("test_refresh_secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}

	e := echo.New()
	e.Validator = validate.New()

	prod := mykafka.NewProducer(nil)

	return &testEnv{
		T:      t,
		E:      e,
		DB:     db,
		Tokens: tokens,
		A:      &AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		P:      &ProductHandler{DB: db, Producer: prod},
		C:      &CartHandler{DB: db, Producer: prod},
		O:      &OrderHandler{DB: db, Producer: prod},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// createUser inserts a user directly; the password is always "password".
func (env *testEnv) createUser(email, role string) *models.User {
	pwHash, err := hash.HashPassword("password")
	require.NoError(env.T, err)

	user := &models.User{
		Email:        email,
		Username:     email,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

// asUser sets the context keys the auth middleware would have set.
func asUser(c echo.Context, u *models.User) {
	c.Set("userID", u.ID)
	c.Set("role", u.Role)
}

func (env *testEnv) seedProduct(title, description, category, price string) models.Product {
	p := models.Product{
		Title:       title,
		Description: description,
		Category:    category,
		Price:       decimal.RequireFromString(price),
		Inventory:   100,
		IsActive:    true,
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}
