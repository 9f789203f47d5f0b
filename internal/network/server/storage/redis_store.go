// Package storage 中继服务的 Redis 存储：频道成员、频道事件日志、在线会话
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	channelLogPrefix     = "channel:log:"
	channelMembersPrefix = "channel:members:"
	sessionKeyPrefix     = "session:"

	// 会话数据过期时间
	sessionExpiration = 2 * time.Hour
)

// Presence 一个用户在某个频道上的在线状态
type Presence struct {
	UserID         string
	Channel        string
	Online         bool
	ConnectedAt    time.Time
	DisconnectedAt time.Time
}

// RedisStore Redis 存储
type RedisStore struct {
	client       *redis.Client
	historyLimit int64
	historyTTL   time.Duration
}

// NewRedisStore 创建 Redis 存储
// limit 为每个频道保留的事件数，ttl 为频道空闲后的保留时长
func NewRedisStore(client *redis.Client, limit int, ttl time.Duration) *RedisStore {
	if limit <= 0 {
		limit = 512
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisStore{client: client, historyLimit: int64(limit), historyTTL: ttl}
}

// --- 频道事件日志 ---

// AppendEvent 追加一帧到频道日志，只保留最近 historyLimit 条
func (rs *RedisStore) AppendEvent(ctx context.Context, channel string, frame []byte) error {
	key := channelLogPrefix + channel
	pipe := rs.client.TxPipeline()
	pipe.RPush(ctx, key, frame)
	pipe.LTrim(ctx, key, -rs.historyLimit, -1)
	pipe.Expire(ctx, key, rs.historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("追加频道事件失败: %w", err)
	}
	return nil
}

// History 按时间顺序返回频道日志
func (rs *RedisStore) History(ctx context.Context, channel string) ([][]byte, error) {
	values, err := rs.client.LRange(ctx, channelLogPrefix+channel, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	frames := make([][]byte, len(values))
	for i, v := range values {
		frames[i] = []byte(v)
	}
	return frames, nil
}

// --- 频道成员 ---

// AddMember 记录用户加入频道
func (rs *RedisStore) AddMember(ctx context.Context, channel, userID string) error {
	key := channelMembersPrefix + channel
	pipe := rs.client.TxPipeline()
	pipe.SAdd(ctx, key, userID)
	pipe.Expire(ctx, key, rs.historyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// RemoveMember 记录用户离开频道
func (rs *RedisStore) RemoveMember(ctx context.Context, channel, userID string) error {
	return rs.client.SRem(ctx, channelMembersPrefix+channel, userID).Err()
}

// Members 频道当前成员
func (rs *RedisStore) Members(ctx context.Context, channel string) ([]string, error) {
	return rs.client.SMembers(ctx, channelMembersPrefix+channel).Result()
}

// --- 会话存储 ---

// SaveSession 保存在线状态
func (rs *RedisStore) SaveSession(ctx context.Context, p *Presence) error {
	data := map[string]any{
		"user_id":      p.UserID,
		"channel":      p.Channel,
		"is_online":    p.Online,
		"connected_at": p.ConnectedAt.Unix(),
	}
	if !p.DisconnectedAt.IsZero() {
		data["disconnected_at"] = p.DisconnectedAt.Unix()
	}

	key := sessionKeyPrefix + p.UserID
	pipe := rs.client.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, sessionExpiration)
	_, err := pipe.Exec(ctx)
	return err
}

// LoadSession 加载在线状态，不存在时返回 nil
func (rs *RedisStore) LoadSession(ctx context.Context, userID string) (*Presence, error) {
	data, err := rs.client.HGetAll(ctx, sessionKeyPrefix+userID).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	p := &Presence{
		UserID:  data["user_id"],
		Channel: data["channel"],
		Online:  data["is_online"] == "1",
	}
	if v, err := strconv.ParseInt(data["connected_at"], 10, 64); err == nil {
		p.ConnectedAt = time.Unix(v, 0)
	}
	if v, err := strconv.ParseInt(data["disconnected_at"], 10, 64); err == nil {
		p.DisconnectedAt = time.Unix(v, 0)
	}
	return p, nil
}

// SetOffline 标记用户离线
func (rs *RedisStore) SetOffline(ctx context.Context, userID string, at time.Time) error {
	key := sessionKeyPrefix + userID
	n, err := rs.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("会话不存在")
	}
	return rs.client.HSet(ctx, key, "is_online", false, "disconnected_at", at.Unix()).Err()
}
