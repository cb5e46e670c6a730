package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFromRequest_HeaderFallback(t *testing.T) {
	v := NewVerifier("")
	assert.False(t, v.Enabled())

	r := httptest.NewRequest("GET", "/", nil)
	_, err := v.UserFromRequest(r)
	assert.ErrorIs(t, err, ErrNoIdentity)

	r.Header.Set(UserHeader, "user-1")
	id, err := v.UserFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestUserFromRequest_Bearer(t *testing.T) {
	v := NewVerifier("s3cret")
	token, err := v.Issue("user-42", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set(UserHeader, "spoofed")
	_, err = v.UserFromRequest(r)
	assert.ErrorIs(t, err, ErrNoIdentity, "header is ignored once tokens are enforced")

	r.Header.Set("Authorization", "Bearer "+token)
	id, err := v.UserFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestUserFromToken_Rejects(t *testing.T) {
	v := NewVerifier("s3cret")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"wrong secret", func(t *testing.T) string {
			tok, err := NewVerifier("other").Issue("u", time.Hour)
			require.NoError(t, err)
			return tok
		}},
		{"expired", func(t *testing.T) string {
			tok, err := v.Issue("u", -time.Minute)
			require.NoError(t, err)
			return tok
		}},
		{"missing subject", func(t *testing.T) string {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{}).SignedString([]byte("s3cret"))
			require.NoError(t, err)
			return tok
		}},
		{"garbage", func(t *testing.T) string { return "not-a-jwt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.UserFromToken(tt.token(t))
			assert.Error(t, err)
		})
	}
}

func TestSweepAuthorized(t *testing.T) {
	open := httptest.NewRequest("POST", "/scheduled/sweep", nil)
	assert.True(t, SweepAuthorized(open, ""), "no secret configured")
	assert.False(t, SweepAuthorized(open, "s3cret"))

	wrong := httptest.NewRequest("POST", "/scheduled/sweep", nil)
	wrong.Header.Set(SweepTokenHeader, "guess")
	assert.False(t, SweepAuthorized(wrong, "s3cret"))

	header := httptest.NewRequest("POST", "/scheduled/sweep", nil)
	header.Header.Set(SweepTokenHeader, "s3cret")
	assert.True(t, SweepAuthorized(header, "s3cret"))

	query := httptest.NewRequest("POST", "/pubsub/sweep?token=s3cret", nil)
	assert.True(t, SweepAuthorized(query, "s3cret"))
}
