package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewUserValidation(t *testing.T) {
	u, err := NewUser("daniela", "")
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if u.Language != DefaultLanguage {
		t.Fatalf("language = %q, want default %q", u.Language, DefaultLanguage)
	}
	if u.ID == "" {
		t.Fatal("missing generated id")
	}

	if _, err := NewUser("", "en"); !errors.Is(err, ErrUsernameEmpty) {
		t.Fatalf("empty username err = %v", err)
	}
	if _, err := NewUser(strings.Repeat("x", MaxUsernameLen+1), "en"); !errors.Is(err, ErrUsernameTooLong) {
		t.Fatalf("long username err = %v", err)
	}
	if _, err := NewUser("ok", "toolonglang"); !errors.Is(err, ErrBadLanguage) {
		t.Fatalf("bad language err = %v", err)
	}
}

func TestSetLanguage(t *testing.T) {
	u, _ := NewUser("daniela", "en")
	if err := u.SetLanguage("pt"); err != nil || u.Language != "pt" {
		t.Fatalf("set language: %v (lang=%q)", err, u.Language)
	}
	if err := u.SetLanguage(""); !errors.Is(err, ErrBadLanguage) {
		t.Fatalf("empty language err = %v", err)
	}
}

func TestPairingPartner(t *testing.T) {
	p := CallPairing{Caller: "alice", Recipient: "bob"}
	if !p.Has("alice") || !p.Has("bob") || p.Has("carol") {
		t.Fatal("membership check wrong")
	}
	if got := p.PartnerOf("alice"); got != "bob" {
		t.Fatalf("partner of alice = %q", got)
	}
	if got := p.PartnerOf("bob"); got != "alice" {
		t.Fatalf("partner of bob = %q", got)
	}
}
