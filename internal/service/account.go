package service

import (
	"context"
	"errors"

	"inkwell/api/internal/models"
	"inkwell/api/internal/repository"
)

func (s *AuthService) GetProfile(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserMissing
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update repository.ProfileUpdate) (models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserMissing
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *AuthService) DeactivateAccount(ctx context.Context, userID string) error {
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserMissing
		}
		return err
	}
	return s.sessions.RevokeAllByUser(ctx, userID)
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.sessions.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserMissing
		}
		return err
	}
	return nil
}

// requireAdmin re-checks the caller's role in the store even though the
// route guard has already gated on role.
func (s *AuthService) requireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil || caller.Role != models.UserRoleAdmin {
		return ErrAdminRequired
	}
	return nil
}

func (s *AuthService) ListUsers(ctx context.Context, callerID string) ([]models.User, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

func (s *AuthService) UpdateUserRole(ctx context.Context, callerID, targetID string, role models.UserRole) (models.User, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateRole(ctx, targetID, role)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrUserMissing
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *AuthService) DeleteUserByAdmin(ctx context.Context, callerID, targetID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if callerID == targetID {
		return ErrAdminSelfDelete
	}

	if err := s.sessions.RevokeAllByUser(ctx, targetID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserMissing
		}
		return err
	}
	return nil
}
