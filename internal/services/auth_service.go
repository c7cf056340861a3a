package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shopbill/internal/domain"
	applog "shopbill/internal/log"
	"shopbill/internal/notify"
	"shopbill/internal/repos"
)

var (
	ErrBadCreds    = errors.New("invalid email or password")
	ErrNotVerified = errors.New("account not verified")
)

const tokenTTL = 10 * time.Hour

type AuthService struct {
	Users  *repos.UserRepo
	Shops  *repos.ShopRepo
	Notify notify.Notifier
	Secret []byte
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
	Role     string `json:"role"`
	// Optional for staff: attach to an existing shop via its owner at
	// signup. Detached staff are attached later by the owner.
	OwnerUsername string `json:"ownerUsername"`
}

// Signup registers an unverified account and dispatches its
// verification code. Staff naming their owner are attached to that
// shop here; the rest stay detached until the owner attaches them.
func (s *AuthService) Signup(req SignupRequest) (*domain.User, error) {
	role := req.Role
	if role == "" {
		role = domain.RoleStaff
	}
	if role != domain.RoleShopOwner && role != domain.RoleStaff {
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrInvalidInput)
	}

	var shopID string
	if role == domain.RoleStaff && req.OwnerUsername != "" {
		shop, err := s.Shops.ByOwner(req.OwnerUsername)
		if err != nil {
			return nil, err
		}
		shopID = shop.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}

	u := domain.User{
		ID:               uuid.NewString(),
		Username:         req.Username,
		Email:            req.Email,
		Mobile:           req.Mobile,
		Hash:             string(hash),
		Role:             role,
		ShopID:           shopID,
		Verified:         false,
		VerificationCode: uuid.NewString()[:6],
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}

	if err := s.Notify.SendVerification(u.Email, u.Username, u.VerificationCode); err != nil {
		// The account exists either way; the code can be resent.
		applog.Error(nil, "notify.verification.fail", err, map[string]any{"email": u.Email})
	}
	return &u, nil
}

func (s *AuthService) Verify(email, code string) error {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return err
	}
	if u.Verified {
		return nil
	}
	if u.VerificationCode == "" || u.VerificationCode != code {
		return fmt.Errorf("verification code mismatch: %w", domain.ErrInvalidInput)
	}
	if err := s.Users.MarkVerified(u.ID); err != nil {
		return err
	}
	_ = s.Notify.SendWelcome(u.Email, u.Username)
	return nil
}

func (s *AuthService) ResendCode(email string) error {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return err
	}
	if u.Verified {
		return nil
	}
	code := uuid.NewString()[:6]
	if err := s.Users.SetVerificationCode(u.ID, code); err != nil {
		return err
	}
	return s.Notify.SendVerification(u.Email, u.Username, code)
}

// Login checks credentials and returns a signed bearer token.
func (s *AuthService) Login(email, password string) (string, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return "", ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", ErrBadCreds
	}
	if !u.Verified {
		return "", ErrNotVerified
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   u.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// ParseToken validates a bearer token and returns the principal it
// identifies.
func (s *AuthService) ParseToken(token string) (*domain.User, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	return s.Users.ByUsername(claims.Subject)
}
