package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNotJWT is returned when a credential is not a decodable JWT. Opaque
// credentials are valid; they just carry no inspectable claims.
var ErrNotJWT = errors.New("security: credential is not a JWT")

// CredentialInfo holds claims read from a credential without verifying its
// signature. It is informational only; the attendance service stays the
// authority on whether a credential is valid.
type CredentialInfo struct {
	Subject   string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the credential carries an expiry before now.
func (i CredentialInfo) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// InspectCredential decodes the registered claims of a JWT credential.
func InspectCredential(credential string) (CredentialInfo, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, &claims); err != nil {
		return CredentialInfo{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}

	info := CredentialInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		info.ExpiresAt = &expires
	}
	if claims.IssuedAt != nil {
		issued := claims.IssuedAt.Time
		info.IssuedAt = &issued
	}
	return info, nil
}
