package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/framestock/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "fs"
	pingTimeout   = 3 * time.Second
)

// ErrDisabled 缓存未启用
var ErrDisabled = errors.New("redis cache disabled")

type redisState struct {
	mu     sync.RWMutex
	client *redis.Client
	prefix string
}

var state = &redisState{prefix: defaultPrefix}

// InitRedis 初始化 Redis 客户端，启动时连通性检查失败则保持禁用
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		Reset()
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		Reset()
		return fmt.Errorf("redis ping %s failed: %w", client.Options().Addr, err)
	}
	return Use(client, cfg.Prefix)
}

// Use 使用已有客户端
func Use(client *redis.Client, prefix string) error {
	if client == nil {
		Reset()
		return ErrDisabled
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	state.mu.Lock()
	state.client = client
	state.prefix = prefix
	state.mu.Unlock()
	return nil
}

// Reset 关闭并重置客户端
func Reset() {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.client != nil {
		_ = state.client.Close()
	}
	state.client = nil
	state.prefix = defaultPrefix
}

// Enabled 判断缓存是否启用
func Enabled() bool {
	return Client() != nil
}

// Client 获取 Redis 客户端，未启用时返回 nil
func Client() *redis.Client {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.client
}

// Prefix 返回 key 前缀
func Prefix() string {
	state.mu.RLock()
	defer state.mu.RUnlock()
	if state.prefix == "" {
		return defaultPrefix
	}
	return state.prefix
}

// Ping 检查连接
func Ping(ctx context.Context) error {
	client := Client()
	if client == nil {
		return ErrDisabled
	}
	return client.Ping(ctx).Err()
}

// GetBytes 获取原始缓存值
func GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	client := Client()
	if client == nil {
		return nil, false, nil
	}
	val, err := client.Get(ctx, BuildKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// SetBytes 写入原始缓存值，ttl 为 0 表示不过期
func SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	client := Client()
	if client == nil {
		return nil
	}
	return client.Set(ctx, BuildKey(key), value, ttl).Err()
}

// GetJSON 获取 JSON 缓存
func GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, hit, err := GetBytes(ctx, key)
	if err != nil || !hit {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入 JSON 缓存
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return SetBytes(ctx, key, payload, ttl)
}

// Del 删除缓存
func Del(ctx context.Context, key string) error {
	client := Client()
	if client == nil {
		return nil
	}
	return client.Del(ctx, BuildKey(key)).Err()
}

// BuildKey 拼接带前缀的 key
func BuildKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return Prefix()
	}
	return Prefix() + ":" + trimmed
}
