package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Hour})

	token, expiresAt, err := svc.IssueToken("admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenServiceRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenService(TokenConfig{Secret: "one"})
	verifier := NewTokenService(TokenConfig{Secret: "two"})

	token, _, err := issuer.IssueToken("admin-1", models.RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Expiry: time.Minute})
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := svc.IssueToken("admin-1", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenServiceIssueValidation(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"})

	_, _, err := svc.IssueToken("", models.RoleAdmin)
	assert.Error(t, err)

	_, _, err = svc.IssueToken("user-1", models.UserRole("JANITOR"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}
