package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"grownet-api/models"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", models.RoleMentor, time.Now())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != models.RoleMentor {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, _ := GenerateToken("secret", "user-1", models.RoleMentee, time.Now().Add(-8*24*time.Hour))
	wrongKey, _ := GenerateToken("other", "user-1", models.RoleMentee, time.Now())
	badRole, _ := GenerateToken("secret", "user-1", models.Role("root"), time.Now())
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1", Role: models.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"expired":   expired,
		"wrong key": wrongKey,
		"bad role":  badRole,
		"alg none":  none,
		"garbage":   "not-a-token",
		"empty":     "",
	} {
		if _, err := ParseToken("secret", token); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
