package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// IDTokenVerifier verifies Firebase ID tokens; *auth.Client implements it
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

func verifyFirebase(ctx context.Context, verifier IDTokenVerifier, idToken string) (string, bool) {
	if verifier == nil {
		return "", false
	}
	token, err := verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", false
	}
	return token.UID, true
}
