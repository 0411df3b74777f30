package game

import (
	"context"
	"sync"

	"github.com/SlpAus/pinochle-score-sheet-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// KV 是仓库所依赖的最小键值存储接口。
// 生产环境由Redis支撑；memory驱动供本地无Redis调试和测试使用。
type KV interface {
	// Get 返回键的当前值。键不存在时第二个返回值为false，不是错误。
	Get(ctx context.Context, key string) (string, bool, error)
	// Set 整体替换键的值。底层介质保证写入不撕裂。
	Set(ctx context.Context, key string, value string) error
	// Del 删除键。键不存在时为空操作。
	Del(ctx context.Context, key string) error
}

// --- Redis 实现 ---

type redisKV struct{}

// NewRedisKV 返回由全局 database.RDB 支撑的KV实现。
func NewRedisKV() KV {
	return redisKV{}
}

func (redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := database.RDB.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (redisKV) Set(ctx context.Context, key string, value string) error {
	return database.RDB.Set(ctx, key, value, 0).Err()
}

func (redisKV) Del(ctx context.Context, key string) error {
	return database.RDB.Del(ctx, key).Err()
}

// --- 内存实现 ---

type memoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV 返回一个进程内的KV实现。
func NewMemoryKV() KV {
	return &memoryKV{data: make(map[string]string)}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
