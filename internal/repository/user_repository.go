package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"usersvc/internal/model"
)

// ErrDuplicateKey reports a unique index violation on create. The
// uniqueness of username and email is ultimately enforced by the
// database, so concurrent creates surface here rather than racing in
// application code.
var ErrDuplicateKey = errors.New("duplicate key")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) List() ([]model.User, error) {
	var users []model.User
	if err := r.db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}

// Update applies only the given fields and returns the fresh record,
// or (nil, nil) when the id is unknown.
func (r *UserRepository) Update(id uint, fields map[string]interface{}) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}

	if len(fields) == 0 {
		return &user, nil
	}

	if err := r.db.Model(&user).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update user failed: %w", err)
	}

	if err := r.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("reload user failed: %w", err)
	}
	return &user, nil
}

// Delete removes the record and returns its last state, or (nil, nil)
// when the id is unknown.
func (r *UserRepository) Delete(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}

	if err := r.db.Delete(&model.User{}, id).Error; err != nil {
		return nil, fmt.Errorf("delete user failed: %w", err)
	}
	return &user, nil
}
