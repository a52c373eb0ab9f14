package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"inkwell/api/internal/models"
	"inkwell/api/internal/repository"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, id string, update repository.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Username != nil {
		u.Username = update.Username
	}
	if update.Bio != nil {
		u.Bio = update.Bio
	}
	if update.AvatarURL != nil {
		u.AvatarURL = update.AvatarURL
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return u, nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	s.users[id] = u
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = hash
	s.users[id] = u
	return nil
}

func (s *memUserStore) UpdatePasswordByEmail(_ context.Context, email string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.Email == email {
			u.PasswordHash = hash
			s.users[id] = u
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func (s *memUserStore) UpdateRole(_ context.Context, id string, role models.UserRole) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	u.Role = role
	s.users[id] = u
	return u, nil
}

func (s *memUserStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsActive = active
	s.users[id] = u
	return nil
}

func (s *memUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.RefreshToken
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]models.RefreshToken)}
}

func (s *memSessionStore) Create(_ context.Context, token models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.CreatedAt = time.Now()
	s.sessions[token.ID] = token
	return nil
}

func (s *memSessionStore) ListActiveByUser(_ context.Context, userID string) ([]models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.RefreshToken
	for _, t := range s.sessions {
		if t.UserID == userID && t.RevokedAt == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memSessionStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.sessions[id]
	if !ok || t.RevokedAt != nil {
		return repository.ErrTokenNotFound
	}
	now := time.Now()
	t.RevokedAt = &now
	s.sessions[id] = t
	return nil
}

func (s *memSessionStore) RevokeAllByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, t := range s.sessions {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.sessions[id] = t
		}
	}
	return nil
}

func (s *memSessionStore) activeCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.sessions {
		if t.UserID == userID && t.RevokedAt == nil {
			count++
		}
	}
	return count
}

type memCodeStore struct {
	mu    sync.Mutex
	codes map[string]models.VerificationCode
}

func newMemCodeStore() *memCodeStore {
	return &memCodeStore{codes: make(map[string]models.VerificationCode)}
}

func (s *memCodeStore) Create(_ context.Context, code models.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes {
		if c.Email == code.Email {
			return repository.ErrCodeExists
		}
	}
	code.CreatedAt = time.Now()
	code.UpdatedAt = code.CreatedAt
	s.codes[code.ID] = code
	return nil
}

func (s *memCodeStore) FindByEmail(_ context.Context, email string) (models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes {
		if c.Email == email {
			return c, nil
		}
	}
	return models.VerificationCode{}, repository.ErrCodeNotFound
}

func (s *memCodeStore) IncrementAttempts(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[id]
	if !ok {
		return 0, repository.ErrCodeNotFound
	}
	c.Attempts++
	s.codes[id] = c
	return c.Attempts, nil
}

func (s *memCodeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, id)
	return nil
}

func (s *memCodeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}

func (s *memCodeStore) expire(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.codes {
		if c.Email == email {
			c.OTPExpiresAt = time.Now().Add(-time.Minute)
			s.codes[id] = c
		}
	}
}

func (s *memCodeStore) otpFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.codes {
		if c.Email == email {
			return c.OTPCode
		}
	}
	return ""
}

var errSendFailed = errors.New("smtp unreachable")

type fakeNotifier struct {
	mu       sync.Mutex
	failNext bool
	sent     []string
}

func (n *fakeNotifier) SendOTPEmail(_ context.Context, email, otp, name string) error {
	return n.record(email)
}

func (n *fakeNotifier) SendPasswordResetOTPEmail(_ context.Context, email, otp, name string) error {
	return n.record(email)
}

func (n *fakeNotifier) record(email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext {
		n.failNext = false
		return errSendFailed
	}
	n.sent = append(n.sent, email)
	return nil
}

func (n *fakeNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
