package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	accountID := uuid.New()

	token, err := issuer.Issue(accountID, RoleDoctor)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	identity, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if identity.AccountID != accountID {
		t.Errorf("expected account id %s, got %s", accountID, identity.AccountID)
	}
	if identity.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", identity.Role)
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(uuid.New(), RolePatient)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Issue(uuid.New(), RoleAdmin)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Verify("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestTokenIssuer_RejectsUnknownRole(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(uuid.New(), "superuser")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := issuer.Verify(token); err == nil {
		t.Error("expected error for unknown role claim")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleDoctor, RolePatient} {
		if !ValidRole(r) {
			t.Errorf("expected %q to be valid", r)
		}
	}
	if ValidRole("nurse") {
		t.Error("expected nurse to be invalid")
	}
	if ValidRole("") {
		t.Error("expected empty role to be invalid")
	}
}
