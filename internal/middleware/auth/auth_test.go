package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func signToken(t *testing.T, secret []byte, subject, role string, exp time.Time) string {
	t.Helper()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return rec, handler(c)
}

func TestRequireAuth(t *testing.T) {
	mw := NewMiddleware(testSecret)
	valid := signToken(t, testSecret, "42", "user", time.Now().Add(time.Hour))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, []byte("other"), "42", "user", time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + signToken(t, testSecret, "42", "user", time.Now().Add(-time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := doRequest(t, mw.RequireAuth, tt.header)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				return
			}
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.wantStatus, httpErr.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	mw := NewMiddleware(testSecret)

	admin := signToken(t, testSecret, "1", "admin", time.Now().Add(time.Hour))
	_, err := doRequest(t, mw.RequireAdmin, "Bearer "+admin)
	require.NoError(t, err)

	user := signToken(t, testSecret, "2", "user", time.Now().Add(time.Hour))
	_, err = doRequest(t, mw.RequireAdmin, "Bearer "+user)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	_, err = doRequest(t, mw.RequireAdmin, "")
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestUserID(t *testing.T) {
	mw := NewMiddleware(testSecret)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, testSecret, "42", "user", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw.RequireAuth(func(c echo.Context) error {
		id, err := UserID(c)
		require.NoError(t, err)
		assert.EqualValues(t, 42, id)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))

	// Without the middleware having run, UserID fails.
	bare := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := UserID(bare)
	require.Error(t, err)
}
