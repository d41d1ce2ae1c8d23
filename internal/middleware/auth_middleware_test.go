package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipebox/internal/middleware"
	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newApp(auth middleware.Authenticator, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{middleware.AuthRequired(auth)}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.SendString(middleware.CurrentUser(c).Email)
	})
	app.Get("/private", handlers...)
	return app
}

func do(t *testing.T, app *fiber.App, header string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestAuthRequired(t *testing.T) {
	auth := new(MockAuthenticator)
	user := &models.User{ID: "u1", Email: "example@email.com", IsActive: true}
	auth.On("Authenticate", mock.Anything, "good").Return(user, nil)
	auth.On("Authenticate", mock.Anything, "bad").Return(nil, errors.New("invalid token"))
	app := newApp(auth)

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, app, "").StatusCode)
	})
	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, app, "Token good").StatusCode)
	})
	t.Run("invalid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, app, "Bearer bad").StatusCode)
	})
	t.Run("valid token", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(t, app, "Bearer good").StatusCode)
	})
	auth.AssertExpectations(t)
}

func TestStaffAndSuperuserRequired(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Authenticate", mock.Anything, "regular").Return(&models.User{ID: "u1", Email: "a@b.c"}, nil)
	auth.On("Authenticate", mock.Anything, "staff").Return(&models.User{ID: "u2", Email: "s@b.c", IsStaff: true}, nil)
	auth.On("Authenticate", mock.Anything, "root").Return(&models.User{ID: "u3", Email: "r@b.c", IsStaff: true, IsSuperuser: true}, nil)

	staffApp := newApp(auth, middleware.StaffRequired())
	assert.Equal(t, http.StatusForbidden, do(t, staffApp, "Bearer regular").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, staffApp, "Bearer staff").StatusCode)

	rootApp := newApp(auth, middleware.SuperuserRequired())
	assert.Equal(t, http.StatusForbidden, do(t, rootApp, "Bearer staff").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, rootApp, "Bearer root").StatusCode)
}
