package auth

import (
	"testing"
	"time"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	at := NewAuthToken("test-secret").WithTTL(time.Minute)

	token, err := at.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	valid, clientID, err := at.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if !valid || clientID != "client-42" {
		t.Fatalf("unexpected verification: valid=%v client=%q", valid, clientID)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	token, err := NewAuthToken("secret-a").GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if valid, _, err := NewAuthToken("secret-b").VerifyToken(token); err == nil || valid {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	at := NewAuthToken("test-secret").WithTTL(-time.Minute)

	token, err := at.GenerateToken("client-42")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if valid, _, err := at.VerifyToken(token); err == nil || valid {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestEmptySecretRejected(t *testing.T) {
	at := NewAuthToken("")
	if _, err := at.GenerateToken("client-42"); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, _, err := at.VerifyToken("whatever"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
