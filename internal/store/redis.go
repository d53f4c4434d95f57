package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Flyrell/logbook/internal/attendance"
)

// redisWriteScript applies attendance entries with last-write-wins and
// announces the applied keys to every subscribed client.
// KEYS[1] = attendance hash (date key -> entry JSON)
// KEYS[2] = stamp hash (date key -> UpdatedAt, see redisStamp)
// KEYS[3] = change channel
// ARGV    = repeated (date key, entry JSON, stamp) triples
var redisWriteScript = redis.NewScript(`
local applied = {}
for i = 1, #ARGV, 3 do
    local field = ARGV[i]
    local value = ARGV[i + 1]
    local stamp = ARGV[i + 2]
    local current = redis.call("HGET", KEYS[2], field) or ""
    if stamp >= current then
        redis.call("HSET", KEYS[1], field, value)
        redis.call("HSET", KEYS[2], field, stamp)
        table.insert(applied, field)
    end
end
if #applied > 0 then
    redis.call("PUBLISH", KEYS[3], cjson.encode(applied))
end
return applied
`)

// Redis stores documents in Redis hashes and pushes changes over pub/sub, so
// writes from any device reach every subscribed client.
type Redis struct {
	client *redis.Client
}

var _ Store = (*Redis)(nil)

// NewRedis creates a store backed by the Redis server at addr.
func NewRedis(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb}
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func settingsKey(uid string) string   { return fmt.Sprintf("logbook:%s:settings", uid) }
func attendanceKey(uid string) string { return fmt.Sprintf("logbook:%s:attendance", uid) }
func stampsKey(uid string) string     { return fmt.Sprintf("logbook:%s:stamps", uid) }
func changesKey(uid string) string    { return fmt.Sprintf("logbook:%s:changes", uid) }

func (r *Redis) GetSettings(ctx context.Context, uid string) (*Settings, error) {
	vals, err := r.client.HGetAll(ctx, settingsKey(uid)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}

	total, err := strconv.Atoi(vals["totalWeeks"])
	if err != nil {
		return nil, fmt.Errorf("invalid totalWeeks %q: %w", vals["totalWeeks"], err)
	}
	return fromDoc(settingsDoc{StartDate: vals["startDate"], TotalWeeks: total})
}

func (r *Redis) SetSettings(ctx context.Context, uid string, s Settings) error {
	doc := toDoc(s)
	return r.client.HSet(ctx, settingsKey(uid),
		"startDate", doc.StartDate,
		"totalWeeks", doc.TotalWeeks,
	).Err()
}

func (r *Redis) ReadAttendance(ctx context.Context, uid string, keys []string) (attendance.Snapshot, error) {
	if len(keys) == 0 {
		return attendance.Snapshot{}, nil
	}

	vals, err := r.client.HMGet(ctx, attendanceKey(uid), keys...).Result()
	if err != nil {
		return nil, err
	}
	return decodeEntries(keys, vals)
}

func (r *Redis) WriteAttendance(ctx context.Context, uid string, entries map[string]attendance.Entry) error {
	args, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	keys := []string{attendanceKey(uid), stampsKey(uid), changesKey(uid)}
	if err := redisWriteScript.Run(ctx, r.client, keys, args...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("writing attendance: %w", err)
	}
	return nil
}

// Subscribe listens on the user's change channel and fetches the announced
// entries that fall within keys.
func (r *Redis) Subscribe(ctx context.Context, uid string, keys []string, fn SnapshotFunc) (func(), error) {
	pubsub := r.client.Subscribe(ctx, changesKey(uid))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to changes: %w", err)
	}

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			changed := filterKeys(msg.Payload, wanted)
			if len(changed) == 0 {
				continue
			}
			snap, err := r.ReadAttendance(subCtx, uid, changed)
			if err != nil {
				continue
			}
			fn(snap)
		}
	}()

	return func() {
		cancel()
		_ = pubsub.Close()
		<-done
	}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// encodeEntries flattens entries into script arguments. Unstamped entries
// are skipped.
func encodeEntries(entries map[string]attendance.Entry) ([]any, error) {
	args := make([]any, 0, len(entries)*3)
	for key, e := range entries {
		if e.UpdatedAt.IsZero() {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		args = append(args, key, string(data), redisStamp(e.UpdatedAt))
	}
	return args, nil
}

// redisStamp formats t as zero-padded unix nanoseconds. Lua numbers are
// doubles and cannot hold nanoseconds exactly, so the script compares these
// fixed-width strings instead.
func redisStamp(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}

// decodeEntries pairs HMGET results with their keys, skipping missing fields.
func decodeEntries(keys []string, vals []any) (attendance.Snapshot, error) {
	snap := attendance.Snapshot{}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok || i >= len(keys) {
			continue
		}
		var e attendance.Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decoding entry %s: %w", keys[i], err)
		}
		snap[keys[i]] = e
	}
	return snap, nil
}

// filterKeys decodes a change announcement and keeps the wanted keys.
func filterKeys(payload string, wanted map[string]bool) []string {
	var announced []string
	if err := json.Unmarshal([]byte(payload), &announced); err != nil {
		return nil
	}
	var keys []string
	for _, k := range announced {
		if wanted[k] {
			keys = append(keys, k)
		}
	}
	return keys
}
