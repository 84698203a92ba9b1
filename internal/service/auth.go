package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// Claims represents the JWT token claims.
type Claims struct {
	UserID   string     `json:"uid"`
	Username string     `json:"usr"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	users  UserStore
	audit  Auditor
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewAuthService(users UserStore, audit Auditor, secret string, ttl time.Duration) *AuthService {
	return &AuthService{users: users, audit: audit, secret: []byte(secret), ttl: ttl, now: systemClock}
}

// normalizePlate canonicalises a plate for storage and lookup.
func normalizePlate(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// Register creates an account. Self-registration always yields a regular
// user; creating another admin requires an admin caller. Admins never carry
// a plate number.
func (s *AuthService) Register(ctx context.Context, caller Actor, req model.RegisterUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	fields := map[string]string{}
	if n := len(req.Username); n < 3 || n > 50 {
		fields["username"] = "must be 3 to 50 characters"
	}
	if n := len(req.Password); n < 6 || n > 72 {
		fields["password"] = "must be 6 to 72 characters"
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid(fields)
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role == model.RoleAdmin && !caller.IsAdmin() {
		return nil, apperr.Forbiddenf("only admins can create admin accounts")
	}

	u, err := s.newUser(req.Username, req.Password, role)
	if err != nil {
		return nil, err
	}
	u.Email = strings.TrimSpace(req.Email)
	if role == model.RoleUser && req.PlateNumber != nil {
		if plate := normalizePlate(*req.PlateNumber); plate != "" {
			u.PlateNumber = &plate
		}
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	actor := caller.UserID
	if actor == "" {
		actor = u.ID
	}
	s.audit.Record(ctx, actor, fmt.Sprintf("User registered: %s", u.Username))
	return u, nil
}

// Login verifies credentials and issues a signed token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Authf("invalid credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Authf("invalid credentials")
	}

	token, err := s.generateToken(u)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	s.audit.Record(ctx, u.ID, "User logged in")
	return &model.LoginResponse{Token: token, User: u}, nil
}

// ValidateToken verifies a bearer token and returns the caller it names.
func (s *AuthService) ValidateToken(tokenStr string) (Actor, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Actor{}, apperr.Authf("invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Actor{}, apperr.Authf("invalid or expired token")
	}
	return Actor{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// BootstrapAdmin ensures an admin account named username exists. It reports
// whether an account was created; an existing admin is left untouched.
func (s *AuthService) BootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	existing, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil && existing.IsAdmin():
		return false, nil
	case err == nil:
		return false, apperr.Conflictf("user %q exists and is not an admin", username)
	case !errors.Is(err, apperr.ErrNotFound):
		return false, fmt.Errorf("check existing user: %w", err)
	}

	if len(password) < 6 {
		return false, apperr.Validationf("admin password must be at least 6 characters")
	}
	u, err := s.newUser(username, password, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, err
	}
	s.audit.Record(ctx, u.ID, fmt.Sprintf("Admin bootstrapped: %s", u.Username))
	return true, nil
}

func (s *AuthService) newUser(username, password string, role model.Role) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}, nil
}

func (s *AuthService) generateToken(u *model.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
