package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	name := "alice"
	empty := ""

	assert.Equal(t, "alice", User{UserID: 1, Username: &name}.DisplayName())
	assert.Equal(t, "user2", User{UserID: 2, Username: &empty}.DisplayName())
	assert.Equal(t, "user3", User{UserID: 3}.DisplayName())
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "ожидание", StatusPending.Label())
	assert.Equal(t, "ознакомить", StatusReadyToNotify.Label())
	assert.Equal(t, "отправлено", StatusSent.Label())
	assert.Equal(t, "archived", NotificationStatus("archived").Label())

	assert.True(t, StatusSent.Valid())
	assert.False(t, NotificationStatus("archived").Valid())
}

func TestLegacyStatusesRoundTripLabels(t *testing.T) {
	legacy := LegacyStatuses()
	assert.Len(t, legacy, 3)
	for label, status := range legacy {
		assert.Equal(t, label, status.Label())
	}
}
