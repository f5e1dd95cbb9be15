package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

// ErrDecode is wrapped by every DecodeToken failure.
var ErrDecode = errors.New("token decode failed")

var unverified = jwt.NewParser()

// DecodeToken reads the claims of a session token without verifying its signature.
// Verification belongs to the backend; the client only needs expiry and identity.
func DecodeToken(token string) (*domain.Claims, error) {
	if token == "" {
		return nil, decodeErr(errors.New("empty token"))
	}

	var claims TokenClaims
	if _, _, err := unverified.ParseUnverified(token, &claims); err != nil {
		return nil, decodeErr(err)
	}
	if claims.ExpiresAt == nil {
		return nil, decodeErr(errors.New("missing exp claim"))
	}

	subject := claims.Subject
	if subject == "" {
		subject = claims.UserID
	}
	if subject == "" {
		subject = claims.AltID
	}
	if subject == "" {
		return nil, decodeErr(errors.New("missing subject claim"))
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return nil, decodeErr(fmt.Errorf("unknown role %q", claims.Role))
	}

	return &domain.Claims{
		SubjectID: subject,
		Role:      role,
		Name:      claims.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func decodeErr(err error) error {
	return apperrors.NewDecodeError(fmt.Errorf("%w: %v", ErrDecode, err))
}
