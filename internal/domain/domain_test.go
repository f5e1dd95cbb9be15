package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("manager")
	assert.False(t, ok)
	assert.False(t, Role("").Valid())
}

func TestClaimsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, Claims{ExpiresAt: now}.Expired(now), "expiry equal to now counts as expired")
	assert.True(t, Claims{ExpiresAt: now.Add(-time.Second)}.Expired(now))
	assert.False(t, Claims{ExpiresAt: now.Add(time.Second)}.Expired(now))
}

func TestRecordCompleteness(t *testing.T) {
	full := Record{Token: "t", Role: "admin", UserID: "1", UserName: "A"}
	assert.True(t, full.Complete())
	assert.False(t, full.Empty())

	partial := Record{Token: "t"}
	assert.False(t, partial.Complete())
	assert.False(t, partial.Empty())

	assert.True(t, Record{}.Empty())
	assert.Equal(t, full, RecordFromValues(full.Values()))
	assert.Equal(t, map[string]string{KeyToken: "t"}, partial.Values())
}
