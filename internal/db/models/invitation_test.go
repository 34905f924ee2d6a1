package models

import (
	"testing"
	"time"
)

func TestInvitationIsExpired(t *testing.T) {
	now := time.Now()
	inv := &Invitation{ExpiresAt: now.Add(time.Hour)}
	if inv.IsExpired(now) {
		t.Error("invitation expiring in an hour should not be expired")
	}
	if !inv.IsExpired(now.Add(2 * time.Hour)) {
		t.Error("invitation past its bound should be expired")
	}
}

func TestRefreshTokenActive(t *testing.T) {
	now := time.Now()
	tok := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	if !tok.Active(now) {
		t.Error("unrevoked, unexpired token should be active")
	}
	revoked := now
	tok.RevokedAt = &revoked
	if tok.Active(now) {
		t.Error("revoked token should not be active")
	}
	tok.RevokedAt = nil
	if tok.Active(now.Add(2 * time.Hour)) {
		t.Error("expired token should not be active")
	}
}
