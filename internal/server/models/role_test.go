package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles() {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	for _, bad := range []string{"", "admin", "ADMIN", "Root", "SuperAdmin "} {
		_, err := ParseRole(bad)
		assert.Error(t, err, "%q must not parse", bad)
	}
}

func TestRole_ZeroValueInvalid(t *testing.T) {
	var r Role
	assert.False(t, r.Valid())
	assert.False(t, Role(42).Valid())
	assert.True(t, DefaultRole.Valid())
}

func TestRole_JSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleSuperAdmin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"SuperAdmin"}`, string(b))

	var out struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, RoleSuperAdmin, out.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"superadmin"}`), &out))
}

func TestRole_MarshalInvalid(t *testing.T) {
	_, err := json.Marshal(struct{ R Role }{})
	assert.Error(t, err)
}

func TestUser_PublicHidesSecrets(t *testing.T) {
	u := &User{
		ID:                    "u1",
		UserName:              "alice",
		PasswordHash:          "$argon2id$...",
		Role:                  RoleAdmin,
		RefreshTokenHash:      "abc",
		RefreshTokenExpiresAt: time.Now(),
	}

	p := u.Public()
	assert.Equal(t, "u1", p.ID)
	assert.Equal(t, "alice", p.UserName)
	assert.Equal(t, RoleAdmin, p.Role)
	assert.Empty(t, p.PasswordHash)
	assert.False(t, p.HasRefreshToken())
	assert.True(t, u.HasRefreshToken())

	b, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "argon2id")
	assert.NotContains(t, string(b), "abc")
}
