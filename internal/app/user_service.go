package app

import (
	"context"
	"log"
	"time"

	"usersvc/internal/model"
	"usersvc/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	cache     UserCache
	publisher EventPublisher
}

type UpdateUserInput struct {
	FullName *string
}

func NewUserService(userRepo *repository.UserRepository, cache UserCache, publisher EventPublisher) *UserService {
	return &UserService{
		userRepo:  userRepo,
		cache:     cache,
		publisher: publisher,
	}
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List()
}

func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*model.User, error) {
	fields := map[string]interface{}{}
	if input.FullName != nil {
		fields["full_name"] = *input.FullName
	}

	user, err := s.userRepo.Update(id, fields)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.invalidate(ctx, id)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.Delete(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	s.invalidate(ctx, id)
	if s.publisher != nil {
		event := model.UserEvent{
			Type:       model.UserEventDeleted,
			UserID:     user.ID,
			Username:   user.Username,
			Email:      user.Email,
			OccurredAt: time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Printf("publish %s event failed: %v", model.UserEventDeleted, err)
		}
	}
	return user, nil
}

func (s *UserService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.Printf("user cache invalidate failed: %v", err)
	}
}
