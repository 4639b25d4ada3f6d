package service

import (
	"errors"

	"campusdigest/config"
	"campusdigest/internal/util"
)

// digestOwner is the JWT subject for the single dashboard user.
const digestOwner = "owner"

var ErrInvalidCredentials = errors.New("invalid password")

// AuthService guards the dashboard. The digest serves one user, so login is
// a single bcrypt-hashed password from configuration, no user table.
type AuthService struct {
	jwtSecret    string
	passwordHash string
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{
		jwtSecret:    cfg.JWTSecret,
		passwordHash: cfg.PasswordHash,
	}
}

// Login checks the password and returns a session JWT.
func (s *AuthService) Login(password string) (string, error) {
	if s.passwordHash == "" || !util.CheckPassword(password, s.passwordHash) {
		return "", ErrInvalidCredentials
	}
	return util.GenerateJWT(digestOwner, s.jwtSecret)
}
