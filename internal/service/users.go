package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// UserService serves the caller's own profile and the admin user directory.
type UserService struct {
	users UserStore
	audit Auditor
}

func NewUserService(users UserStore, audit Auditor) *UserService {
	return &UserService{users: users, audit: audit}
}

// Me returns the caller's account.
func (s *UserService) Me(ctx context.Context, a Actor) (*model.User, error) {
	if err := requireRole(a, model.RoleUser, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, a.UserID)
}

// UpdateProfile applies the non-nil fields of req to the caller's account.
// An empty plate_number clears the plate.
func (s *UserService) UpdateProfile(ctx context.Context, a Actor, req model.UpdateProfileRequest) (*model.User, error) {
	if err := requireRole(a, model.RoleUser, model.RoleAdmin); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, a.UserID)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if n := len(name); n < 3 || n > 50 {
			fields["username"] = "must be 3 to 50 characters"
		}
		u.Username = name
	}
	if req.Email != nil {
		u.Email = strings.TrimSpace(*req.Email)
	}
	if req.PlateNumber != nil {
		plate := normalizePlate(*req.PlateNumber)
		switch {
		case u.IsAdmin() && plate != "":
			fields["plate_number"] = "admins cannot hold a plate number"
		case plate == "":
			u.PlateNumber = nil
		default:
			u.PlateNumber = &plate
		}
	}
	if req.Password != nil {
		if n := len(*req.Password); n < 6 || n > 72 {
			fields["password"] = "must be 6 to 72 characters"
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			u.PasswordHash = string(hash)
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid(fields)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, "Profile updated")
	return u, nil
}

// List returns a page of accounts. Admin only.
func (s *UserService) List(ctx context.Context, a Actor, p model.PageRequest) (model.Page[model.User], error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return model.Page[model.User]{}, err
	}
	p = p.Normalize()
	users, total, err := s.users.List(ctx, p)
	if err != nil {
		return model.Page[model.User]{}, err
	}
	return model.NewPage(users, total, p), nil
}
