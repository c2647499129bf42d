package utils

import (
	"strings"
	"testing"
	"time"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() accepted a wrong password")
	}
	if CheckPassword("", "s3cret") {
		t.Error("CheckPassword() accepted an account without password")
	}
}

func TestEditToken(t *testing.T) {
	token, hash, err := GenerateEditToken()
	if err != nil {
		t.Fatalf("GenerateEditToken() error = %v", err)
	}
	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not URL safe", token)
	}
	if !VerifyEditToken(hash, token) {
		t.Error("VerifyEditToken() rejected its own token")
	}
	if VerifyEditToken(hash, token+"x") || VerifyEditToken(hash, "") || VerifyEditToken("", token) {
		t.Error("VerifyEditToken() accepted a bad token")
	}
	other, _, _ := GenerateEditToken()
	if other == token {
		t.Error("GenerateEditToken() produced duplicate tokens")
	}
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Generate(42, true)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "42" || !claims.Admin {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := NewTokenIssuer("other-secret", time.Hour).Verify(token); err == nil {
		t.Error("Verify() accepted a token signed with another secret")
	}
	if _, err := issuer.Verify("not.a.token"); err == nil {
		t.Error("Verify() accepted garbage")
	}
	if _, err := NewTokenIssuer("", time.Hour).Generate(1, false); err == nil {
		t.Error("Generate() without a secret should fail")
	}
}

func TestObjectPath(t *testing.T) {
	if got := ObjectPath("answers", "abc", "foto.PNG"); got != "answers/abc.PNG" {
		t.Errorf("ObjectPath() = %q", got)
	}
	if got := ObjectPath("", "abc", "noext"); got != "abc" {
		t.Errorf("ObjectPath() = %q", got)
	}
}
