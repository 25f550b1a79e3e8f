package services

import (
  "context"
  "crypto/sha256"
  "encoding/hex"
  "fmt"
  "os"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/refap/refap-backend/internal/logger"
  "github.com/refap/refap-backend/internal/utils"
)

// ReplyCache stores completed LLM replies keyed by a hash of the outgoing
// prompt. Entries are immutable once written; a hit replays the stored text.
type ReplyCache interface {
  Get(ctx context.Context, key string) (string, bool)
  Set(ctx context.Context, key, reply string)
}

type redisReplyCache struct {
  log *logger.Logger
  rdb *goredis.Client
  ttl time.Duration
}

func NewRedisReplyCache(log *logger.Logger) (ReplyCache, error) {
  cacheLog := log.With("service", "RedisReplyCache")

  addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  ttlSec := utils.GetEnvAsInt("REPLY_CACHE_TTL_SECONDS", 900, log)

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisReplyCache{
    log: cacheLog,
    rdb: rdb,
    ttl: time.Duration(ttlSec) * time.Second,
  }, nil
}

func (c *redisReplyCache) Get(ctx context.Context, key string) (string, bool) {
  val, err := c.rdb.Get(ctx, "reply:"+key).Result()
  if err != nil {
    if err != goredis.Nil {
      c.log.Warn("Reply cache read failed", "error", err)
    }
    return "", false
  }
  return val, true
}

func (c *redisReplyCache) Set(ctx context.Context, key, reply string) {
  if strings.TrimSpace(reply) == "" {
    return
  }
  // SetNX keeps entries immutable: a concurrent writer never overwrites.
  if err := c.rdb.SetNX(ctx, "reply:"+key, reply, c.ttl).Err(); err != nil {
    c.log.Warn("Reply cache write failed", "error", err)
  }
}

// PromptCacheKey hashes the normalized outgoing messages. Whitespace runs
// collapse so cosmetic prompt differences do not fragment the cache.
func PromptCacheKey(system string, history []ChatMessage, user string) string {
  h := sha256.New()
  write := func(role, content string) {
    _, _ = h.Write([]byte(role))
    _, _ = h.Write([]byte{0})
    _, _ = h.Write([]byte(strings.Join(strings.Fields(content), " ")))
    _, _ = h.Write([]byte{0})
  }
  write("system", system)
  for _, m := range history {
    write(m.Role, m.Content)
  }
  write("user", user)
  return hex.EncodeToString(h.Sum(nil))
}

// ChunkReply splits a cached reply into chunks so the streaming endpoint can
// replay a hit with the same shape as a live token stream.
func ChunkReply(text string, size int) []string {
  if size <= 0 {
    size = 48
  }
  var out []string
  runes := []rune(text)
  for start := 0; start < len(runes); start += size {
    end := start + size
    if end > len(runes) {
      end = len(runes)
    }
    out = append(out, string(runes[start:end]))
  }
  return out
}
