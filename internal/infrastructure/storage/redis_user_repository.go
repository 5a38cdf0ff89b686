package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyburd/redigo/redis"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

const (
	userKeyPrefix = "leafbot:user:"
	redisMaxIdle  = 10
)

// NewRedisPool создаёт пул соединений с Redis.
func NewRedisPool(addr string) *redis.Pool {
	return redis.NewPool(func() (redis.Conn, error) {
		return redis.Dial("tcp", addr)
	}, redisMaxIdle)
}

// RedisUserRepository хранит сессии пользователей в Redis в виде JSON.
type RedisUserRepository struct {
	pool *redis.Pool
	ttl  time.Duration
}

// NewRedisUserRepository создаёт хранилище; ttl <= 0 отключает истечение ключей.
func NewRedisUserRepository(pool *redis.Pool, ttl time.Duration) *RedisUserRepository {
	return &RedisUserRepository{pool: pool, ttl: ttl}
}

func userKey(userID int64) string {
	return fmt.Sprintf("%s%d", userKeyPrefix, userID)
}

// Get возвращает пользователя по ID, создаёт нового если не найден
func (r *RedisUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	conn := r.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", userKey(userID)))
	if err == redis.ErrNil {
		user := entity.NewUser(userID, chatID)
		if err := r.put(conn, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get user %d: %w", userID, err)
	}

	var user entity.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user %d: %w", userID, err)
	}
	return &user, nil
}

// Save сохраняет состояние пользователя
func (r *RedisUserRepository) Save(ctx context.Context, user *entity.User) error {
	conn := r.pool.Get()
	defer conn.Close()
	return r.put(conn, user)
}

// UpdateState обновляет состояние существующего пользователя
func (r *RedisUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	conn := r.pool.Get()
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", userKey(userID)))
	if err == redis.ErrNil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get user %d: %w", userID, err)
	}

	var user entity.User
	if err := json.Unmarshal(data, &user); err != nil {
		return fmt.Errorf("decode user %d: %w", userID, err)
	}
	user.SetState(state)
	return r.put(conn, &user)
}

func (r *RedisUserRepository) put(conn redis.Conn, user *entity.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %d: %w", user.ID, err)
	}

	args := []interface{}{userKey(user.ID), data}
	if r.ttl > 0 {
		args = append(args, "EX", int(r.ttl.Seconds()))
	}
	if _, err := conn.Do("SET", args...); err != nil {
		return fmt.Errorf("redis set user %d: %w", user.ID, err)
	}
	return nil
}

var _ port.UserRepository = (*RedisUserRepository)(nil)
