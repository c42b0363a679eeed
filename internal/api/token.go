package api

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// StudentID reads the student id from a bearer token's claims without
// verifying the signature. The server remains the authority on the token;
// the id only keys local locks and journal rows.
func StudentID(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	for _, key := range []string{"sub", "id", "userId", "_id"} {
		if s, ok := claims[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("token has no sub, id or userId claim")
}
