package service

import (
	"context"
	"strconv"
	"strings"

	"newsdesk/internal/models"
	"newsdesk/internal/repository"
)

const maxUsernameLen = 150

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// EnsureUser mirrors an authenticated identity locally. It writes only when
// the user is new or the username claim changed.
func (s *UserService) EnsureUser(ctx context.Context, id uint, username string) (*models.User, error) {
	if id == 0 {
		return nil, models.NewUnauthorizedError("Invalid token subject")
	}
	username = strings.TrimSpace(username)
	if r := []rune(username); len(r) > maxUsernameLen {
		username = string(r[:maxUsernameLen])
	}

	existing, err := s.userRepo.GetByID(ctx, id)
	switch {
	case err == nil:
		if username == "" || existing.Username == username {
			return existing, nil
		}
	case !models.IsNotFound(err):
		return nil, err
	}

	if username == "" {
		username = "user-" + strconv.FormatUint(uint64(id), 10)
	}
	user := &models.User{ID: id, Username: username}
	if existing != nil {
		user.IsAdmin = existing.IsAdmin
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	if err := s.userRepo.SetAdmin(ctx, targetID, isAdmin); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListAdmins(ctx)
}
