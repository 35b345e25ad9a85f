package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"usersvc/internal/model"
	"usersvc/internal/pkg/jwtutil"
	"usersvc/internal/repository"
)

const testJWTSecret = "service-test-secret"

type recordingPublisher struct {
	events []model.UserEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event model.UserEvent) error {
	p.events = append(p.events, event)
	return nil
}

type mapCache struct {
	users map[uint]*model.User
}

func newMapCache() *mapCache {
	return &mapCache{users: map[uint]*model.User{}}
}

func (c *mapCache) Get(_ context.Context, id uint) (*model.User, bool, error) {
	user, ok := c.users[id]
	return user, ok, nil
}

func (c *mapCache) Set(_ context.Context, user *model.User) error {
	c.users[user.ID] = user
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id uint) error {
	delete(c.users, id)
	return nil
}

func newTestRepo(t *testing.T) *repository.UserRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:app-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(&model.User{})
	})
	return repository.NewUserRepository(db)
}

func newTestAuthService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	publisher := &recordingPublisher{}
	svc := NewAuthService(newTestRepo(t), nil, publisher, testJWTSecret, time.Hour)
	return svc, publisher
}

func TestRegister(t *testing.T) {
	svc, publisher := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email, "email is normalized to lower case")
	assert.NotEqual(t, "secret", user.PasswordHash)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, model.UserEventRegistered, publisher.events[0].Type)
	assert.Equal(t, user.ID, publisher.events[0].UserID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "alice", Email: "b@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "a@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterEmptyFields(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Username: " ", Email: "a@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	token, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtutil.ParseToken(testJWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestLoginFailureIsUniform(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginInput{Username: "alice", Password: "nope"})
	_, unknownUser := svc.Login(ctx, LoginInput{Username: "mallory", Password: "secret"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredential)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredential)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLoginMalformedStoredHashFailsClosed(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewAuthService(repo, nil, nil, testJWTSecret, time.Hour)

	require.NoError(t, repo.Create(&model.User{
		Username:     "broken",
		Email:        "broken@example.com",
		PasswordHash: "not-a-bcrypt-hash",
	}))

	_, err := svc.Login(context.Background(), LoginInput{Username: "broken", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGetUserByID(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	got, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.GetUserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByIDUsesCache(t *testing.T) {
	repo := newTestRepo(t)
	userCache := newMapCache()
	svc := NewAuthService(repo, userCache, nil, testJWTSecret, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	_, cached, _ := userCache.Get(ctx, user.ID)
	assert.True(t, cached, "lookup populates the cache")

	// A stale cache entry is served until invalidation.
	userCache.users[user.ID].FullName = "From Cache"
	got, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "From Cache", got.FullName)
}
