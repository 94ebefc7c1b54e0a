package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
	"github.com/ndewijer/stock-tracker/internal/repository"
	"github.com/ndewijer/stock-tracker/internal/secure"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts, sessions and account settings.
type UserService struct {
	userRepo   *repository.UserRepository
	box        *secure.Box
	locks      *UserLocks
	sessionTTL time.Duration
	bcryptCost int
}

// NewUserService creates a new UserService with the provided dependencies.
func NewUserService(
	userRepo *repository.UserRepository,
	box *secure.Box,
	locks *UserLocks,
	sessionTTL time.Duration,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		box:        box,
		locks:      locks,
		sessionTTL: sessionTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Register creates an account with notifications switched off.
// It returns ErrUserExists if the username is taken.
func (s *UserService) Register(ctx context.Context, username, password, pushoverKey string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	keyEnc, err := s.box.Encrypt(pushoverKey)
	if err != nil {
		return model.User{}, err
	}

	u := model.User{
		Username:       username,
		PasswordHash:   string(hash),
		PushoverKeyEnc: keyEnc,
		NotifyFreq:     model.NotifyNone,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return model.User{}, err
	}

	slog.Info("user registered", slog.String("user", username))
	return u, nil
}

// Login checks a password and issues a session token.
// Unknown users and wrong passwords both fail with ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.userRepo.Get(ctx, username)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return "", apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.box.IssueSession(u.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue session: %w", err)
	}

	return token, nil
}

// SessionTTL is how long an issued session stays valid.
func (s *UserService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Authenticate resolves a session token to the username of an existing account.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	username, err := s.box.VerifySession(token, s.sessionTTL)
	if err != nil {
		return "", apperrors.ErrUnauthorized
	}

	if _, err := s.userRepo.Get(ctx, username); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", apperrors.ErrUnauthorized
		}
		return "", err
	}

	return username, nil
}

// GetSettings returns the decrypted settings of a user.
func (s *UserService) GetSettings(ctx context.Context, username string) (model.Settings, error) {
	u, err := s.userRepo.Get(ctx, username)
	if err != nil {
		return model.Settings{}, err
	}

	return s.settingsOf(u), nil
}

// settingsOf decrypts the stored key of u. An undecryptable key, e.g. after
// SECRET_KEY rotation, reads as unset.
func (s *UserService) settingsOf(u model.User) model.Settings {
	key, err := s.box.Decrypt(u.PushoverKeyEnc)
	if err != nil {
		slog.Warn("stored pushover key cannot be decrypted", slog.String("user", u.Username))
		key = ""
	}

	return model.Settings{
		Username:    u.Username,
		PushoverKey: key,
		NotifyFreq:  u.NotifyFreq,
	}
}

// UpdateSettings changes the Pushover key and/or the notification frequency.
// Nil arguments keep the stored value.
func (s *UserService) UpdateSettings(ctx context.Context, username string, pushoverKey *string, freq *model.NotifyFrequency) (model.Settings, error) {
	if freq != nil && !model.ValidNotifyFrequency[*freq] {
		return model.Settings{}, fmt.Errorf("%w: %s", apperrors.ErrInvalidFrequency, *freq)
	}

	u, err := s.userRepo.Get(ctx, username)
	if err != nil {
		return model.Settings{}, err
	}

	current := s.settingsOf(u)
	if pushoverKey != nil {
		current.PushoverKey = *pushoverKey
	}
	if freq != nil {
		current.NotifyFreq = *freq
	}

	keyEnc, err := s.box.Encrypt(current.PushoverKey)
	if err != nil {
		return model.Settings{}, err
	}

	if err := s.userRepo.UpdateSettings(ctx, username, keyEnc, current.NotifyFreq); err != nil {
		return model.Settings{}, err
	}

	return current, nil
}

// DeleteAccount removes a user and their whole ledger.
func (s *UserService) DeleteAccount(ctx context.Context, username string) error {
	unlock := s.locks.Lock(username)
	defer unlock()

	if err := s.userRepo.Delete(ctx, username); err != nil {
		return err
	}

	slog.Info("account deleted", slog.String("user", username))
	return nil
}
