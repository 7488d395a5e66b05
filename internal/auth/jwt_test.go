package auth

import (
	"testing"

	"github.com/plothook/api/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	user := &model.User{ID: 42, Username: "aria", Email: "aria@example.com", Role: model.RoleDM}

	token, err := GenerateAccessToken(user, "test-secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "aria" || claims.Role != model.RoleDM {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := ValidateAccessToken(token, "other-secret"); err == nil {
		t.Fatal("token validated with wrong secret")
	}
}

func TestRefreshTokensAreOpaqueAndDistinct(t *testing.T) {
	a, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatal("refresh tokens should not repeat")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("matching password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
