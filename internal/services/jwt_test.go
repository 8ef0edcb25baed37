package services_test

import (
	"testing"

	"github.com/ShakaTry/DiceBot/internal/config"
	"github.com/ShakaTry/DiceBot/internal/services"
)

func TestJWTRoundTrip(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	token, err := jwtService.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	claims, err := jwtService.ValidateToken(token)
	if err != nil {
		t.Fatalf("validating token: %v", err)
	}
	if claims.ClientID != "client-1" {
		t.Errorf("client id = %q, want client-1", claims.ClientID)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := services.NewJWTService(&config.Config{JWTSecret: "secret-a"})
	verifier := services.NewJWTService(&config.Config{JWTSecret: "secret-b"})

	token, err := issuer.GenerateToken("client-1")
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret accepted")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "test-secret"})

	if _, err := jwtService.ValidateToken("not.a.token"); err == nil {
		t.Fatal("malformed token accepted")
	}
}
