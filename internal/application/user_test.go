package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/infrastructure/storage"
)

func TestUserService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
}

func TestUserService_PreferencesPersist(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	_, err := svc.SelectPlant(ctx, 3, 30, "tomato")
	require.NoError(t, err)
	user, err := svc.ToggleIsolation(ctx, 3, 30)
	require.NoError(t, err)
	require.True(t, user.IsolateForeground)

	user, err = svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, "tomato", user.PlantID)
	require.True(t, user.IsolateForeground)
}

func TestUserService_BeginProcessingOnce(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	user, err := svc.BeginProcessing(ctx, 4, 40)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)

	_, err = svc.BeginProcessing(ctx, 4, 40)
	require.ErrorIs(t, err, ErrBusy)

	_, err = svc.Cancel(ctx, 4, 40)
	require.NoError(t, err)
	_, err = svc.BeginProcessing(ctx, 4, 40)
	require.NoError(t, err)
}

func TestUserService_BeginProcessingConcurrent(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	const callers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		won  int
		busy int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BeginProcessing(ctx, 5, 50)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if errors.Is(err, ErrBusy) {
				busy++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, won)
	require.Equal(t, callers-1, busy)
}
