package api

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/collablink/collab-server/internal/database"
	"github.com/collablink/collab-server/internal/types"
)

func TestUserIdContext(t *testing.T) {
	ctx := WithUserId(context.Background(), 42)

	userId, ok := UserId(ctx)
	assert.True(t, ok, "expected user id to be present")
	assert.Equal(t, 42, userId, "expected stored user id")

	_, ok = UserId(context.Background())
	assert.False(t, ok, "expected no user id on a bare context")
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("hunter2")
	assert.NoError(t, err, "expected hashing to succeed")
	assert.NotEqual(t, "hunter2", hash, "expected the hash to differ from the password")

	assert.True(t, verifyPassword(hash, "hunter2"), "expected the right password to verify")
	assert.False(t, verifyPassword(hash, "wrong"), "expected a wrong password to fail")
}

func TestJwtRoundTrip(t *testing.T) {
	app, _, _ := newTestApp(t, &database.MockRepository{})

	token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
	assert.NoError(t, err, "expected token to be created")

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err, "expected token to be accepted")
	assert.Equal(t, 42, userId, "expected the subject to round trip")
}

func TestExtractUserIdFromTokenRejects(t *testing.T) {
	db := &database.MockRepository{}
	app, _, _ := newTestApp(t, db)

	t.Run("expired token", func(t *testing.T) {
		token, err := app.createJwtForSession(types.User{Id: 42}, -time.Hour)
		assert.NoError(t, err, "expected token to be created")

		_, err = app.extractUserIdFromToken(token)
		assert.Error(t, err, "expected an expired token to be rejected")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			userIdClaim: 42,
			expClaim:    time.Now().Add(time.Hour).Unix(),
		})
		tokenString, err := forged.SignedString([]byte("some-other-key"))
		assert.NoError(t, err, "expected forged token to sign")

		_, err = app.extractUserIdFromToken(tokenString)
		assert.Error(t, err, "expected a foreign signature to be rejected")
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := app.extractUserIdFromToken("not.a.token")
		assert.Error(t, err, "expected garbage to be rejected")
	})

	t.Run("missing user id claim", func(t *testing.T) {
		anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			expClaim: time.Now().Add(time.Hour).Unix(),
		})
		tokenString, err := anonymous.SignedString(app.signingKey)
		assert.NoError(t, err, "expected token to sign")

		_, err = app.extractUserIdFromToken(tokenString)
		assert.Error(t, err, "expected a token without a subject to be rejected")
	})
}

func TestAuthMiddleware(t *testing.T) {
	db := &database.MockRepository{}
	app, _, _ := newTestApp(t, db)

	var gotUserId int
	var gotOk bool
	handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotUserId, gotOk = UserId(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token, err := app.createJwtForSession(types.User{Id: 42}, time.Hour)
		assert.NoError(t, err, "expected token to be created")

		req := httptest.NewRequest(http.MethodGet, "/api/chat/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()

		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected request to pass")
		assert.True(t, gotOk, "expected user id on the request context")
		assert.Equal(t, 42, gotUserId, "expected the token subject")
		assert.NotEmpty(t, rr.Header().Get("Cache-Control"), "expected cache control to be set")
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/chat/users", nil)
		rr := httptest.NewRecorder()

		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected request to be rejected")
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/chat/users", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()

		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected request to be rejected")
	})
}

func TestAuthenticateHandshake(t *testing.T) {
	t.Run("valid token resolves the account", func(t *testing.T) {
		db := &database.MockRepository{}
		app, _, _ := newTestApp(t, db)

		token, err := app.createJwtForSession(types.User{Id: 1}, time.Hour)
		assert.NoError(t, err, "expected token to be created")

		db.On("GetAccountById", 1).Return(database.User{Id: 1, Username: "alice", Role: types.RoleBrand}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/ws/chat/2?token="+token, nil)
		user := app.authenticateHandshake(req)

		assert.Equal(t, 1, user.Id, "expected the token subject")
		assert.Equal(t, "alice", user.Username, "expected the account username")
		db.AssertExpectations(t)
	})

	t.Run("missing token is anonymous", func(t *testing.T) {
		db := &database.MockRepository{}
		app, _, _ := newTestApp(t, db)

		req := httptest.NewRequest(http.MethodGet, "/ws/chat/2", nil)
		user := app.authenticateHandshake(req)

		assert.Zero(t, user.Id, "expected the anonymous user")
		db.AssertNotCalled(t, "GetAccountById", 1)
	})

	t.Run("unknown subject is anonymous", func(t *testing.T) {
		db := &database.MockRepository{}
		app, _, _ := newTestApp(t, db)

		token, err := app.createJwtForSession(types.User{Id: 99}, time.Hour)
		assert.NoError(t, err, "expected token to be created")

		db.On("GetAccountById", 99).Return(database.User{}, sql.ErrNoRows).Once()

		req := httptest.NewRequest(http.MethodGet, "/ws/chat/2?token="+token, nil)
		user := app.authenticateHandshake(req)

		assert.Zero(t, user.Id, "expected the anonymous user")
		db.AssertExpectations(t)
	})
}
