package app

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "secret", Expiry: time.Hour})

	token, err := tm.Generate(1001, "alice", "127.0.0.1")
	require.NoError(t, err)

	user, err := tm.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 1001, user.UID)
	assert.Equal(t, "alice", user.Nickname)
	assert.Equal(t, DefaultTokenIssuer, user.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), user.ExpiresAt.Time, 2*time.Second)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "secret"})
	token, err := tm.Generate(1, "a", "")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		tm    TokenManager
	}{
		{name: "wrong key", token: token, tm: NewTokenManager(TokenConfig{SecretKey: "other"})},
		{name: "wrong issuer", token: token, tm: NewTokenManager(TokenConfig{SecretKey: "secret", Issuer: "someone"})},
		{name: "tampered", token: token + "x", tm: tm},
		{name: "garbage", token: "abc", tm: tm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tm.Parse(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager(TokenConfig{SecretKey: "secret", Expiry: time.Minute}).(*tokenManager)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := m.Generate(1, "a", "")
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGetUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.EqualValues(t, 0, GetUID(c))

	c.Set(ContextUserKey, &UserEntity{UID: 7})
	assert.EqualValues(t, 7, GetUID(c))
}
