package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"usersvc/internal/model"
	"usersvc/internal/pkg/jwtutil"
	"usersvc/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already registered")
	ErrEmailExists       = errors.New("email already registered")
	ErrUserExists        = errors.New("username or email already registered")
	ErrInvalidCredential = errors.New("incorrect username or password")
	ErrUserNotFound      = errors.New("user not found")
)

// UserCache caches user records by id. Implementations must tolerate
// misses; a nil cache disables caching entirely.
type UserCache interface {
	Get(ctx context.Context, id uint) (*model.User, bool, error)
	Set(ctx context.Context, user *model.User) error
	Invalidate(ctx context.Context, id uint) error
}

// EventPublisher emits user lifecycle events. Publishing is
// best-effort: callers log failures and never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, event model.UserEvent) error
}

type AuthService struct {
	userRepo      *repository.UserRepository
	cache         UserCache
	publisher     EventPublisher
	jwtSecret     string
	jwtExpiration time.Duration
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Username string
	Password string
}

func NewAuthService(userRepo *repository.UserRepository, cache UserCache, publisher EventPublisher, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		cache:         cache,
		publisher:     publisher,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if username == "" || email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	existingByName, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	existingByEmail, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(input.FullName),
	}
	if err := s.userRepo.Create(user); err != nil {
		// Concurrent duplicate registrations slip past the
		// pre-checks and resolve at the unique index.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.publishEvent(ctx, model.UserEventRegistered, user)
	return user, nil
}

// Login fails with the same error whether the username is unknown or
// the password is wrong, so responses never reveal which accounts
// exist.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	username := strings.TrimSpace(input.Username)
	password := input.Password
	if username == "" || password == "" {
		return "", ErrInvalidCredential
	}

	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, user.ID, user.Username)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Printf("user cache get failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user); err != nil {
			log.Printf("user cache set failed: %v", err)
		}
	}
	return user, nil
}

func (s *AuthService) publishEvent(ctx context.Context, eventType string, user *model.User) {
	if s.publisher == nil {
		return
	}
	event := model.UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Username:   user.Username,
		Email:      user.Email,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("publish %s event failed: %v", eventType, err)
	}
}
