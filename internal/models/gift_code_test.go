package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGiftCodeExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no expiry never expires", func(t *testing.T) {
		code := GiftCode{Code: "EVERGREEN"}
		assert.False(t, code.Expired(now))
	})

	t.Run("future expiry is still valid", func(t *testing.T) {
		expires := now.Add(time.Hour)
		code := GiftCode{Code: "SOON", ExpiresAt: &expires}
		assert.False(t, code.Expired(now))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		expires := now.Add(-time.Hour)
		code := GiftCode{Code: "LATE", ExpiresAt: &expires}
		assert.True(t, code.Expired(now))
	})
}
