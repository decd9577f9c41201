package redis

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
)

// StreamName 由通道名生成 Stream 名："icu/spo2" → prefix + "icu:spo2"
func StreamName(prefix, channel string) string {
	return prefix + strings.ReplaceAll(channel, "/", ":")
}

// PublishToStream 发布消息到 Redis Streams
// maxLen > 0 时按近似长度裁剪（MAXLEN ~）
func PublishToStream(ctx context.Context, client *redis.Client, stream string, values map[string]interface{}, maxLen int64) (string, error) {
	streamValues := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			streamValues[k] = val
		case []byte:
			streamValues[k] = string(val)
		case int:
			streamValues[k] = strconv.Itoa(val)
		case int64:
			streamValues[k] = strconv.FormatInt(val, 10)
		case bool:
			streamValues[k] = strconv.FormatBool(val)
		default:
			streamValues[k] = v
		}
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: streamValues,
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}

	return client.XAdd(ctx, args).Result()
}
