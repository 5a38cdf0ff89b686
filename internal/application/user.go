package app

import (
	"context"
	"errors"
	"sync"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// ErrBusy возвращается, пока предыдущее фото пользователя ещё анализируется.
var ErrBusy = errors.New("previous photo is still being analyzed")

type UserService struct {
	repo port.UserRepository
	// mu сериализует чтение-изменение-запись в пределах процесса.
	mu sync.Mutex
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SetState(state)
		return nil
	})
}

// BeginProcessing переводит пользователя в состояние анализа.
// Если анализ уже идёт, состояние не меняется и возвращается ErrBusy.
func (s *UserService) BeginProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		if u.State == entity.StateProcessing {
			return ErrBusy
		}
		u.SetState(entity.StateProcessing)
		return nil
	})
}

// BeginCheck переводит пользователя в ожидание фото листа.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// SelectPlant запоминает растение, по которому подбираются советы.
func (s *UserService) SelectPlant(ctx context.Context, userID, chatID int64, plantID string) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.SelectPlant(plantID)
		return nil
	})
}

// ToggleIsolation включает или выключает отделение листа от фона.
func (s *UserService) ToggleIsolation(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) error {
		u.ToggleIsolation()
		return nil
	})
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, apply func(*entity.User) error) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if err := apply(user); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
