package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidGender(t *testing.T) {
	assert.True(t, ValidGender("Male"))
	assert.True(t, ValidGender("Female"))
	assert.True(t, ValidGender("Other"))
	assert.False(t, ValidGender("male"))
	assert.False(t, ValidGender(""))
}

func TestValidRole(t *testing.T) {
	for _, role := range Roles {
		assert.True(t, ValidRole(role))
	}
	assert.False(t, ValidRole("Superuser"))
	assert.False(t, ValidRole(""))
}

func TestOneTimePassword_Expired(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := OneTimePassword{IssuedAt: issued}
	ttl := 5 * time.Minute

	assert.False(t, record.Expired(issued.Add(4*time.Minute), ttl))
	assert.False(t, record.Expired(issued.Add(5*time.Minute), ttl))
	assert.True(t, record.Expired(issued.Add(5*time.Minute+time.Second), ttl))
}
