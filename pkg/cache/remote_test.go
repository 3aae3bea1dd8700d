package cache

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// memRedis answers the commands RedisCache uses from a map. Every other
// method of the embedded interface is unset.
type memRedis struct {
	redis.UniversalClient
	data     map[string][]byte
	ttls     map[string]time.Duration
	failures int // network failures to report before answering
	closed   bool
}

func newMemRedis() *memRedis {
	return &memRedis{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memRedis) fail() error {
	if m.failures > 0 {
		m.failures--
		return &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}
	}
	return nil
}

func (m *memRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if err := m.fail(); err != nil {
		return redis.NewStringResult("", err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if err := m.fail(); err != nil {
		return redis.NewStatusResult("", err)
	}
	m.data[key] = append([]byte(nil), value.([]byte)...)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Close() error {
	m.closed = true
	return nil
}

func TestRedisCache(t *testing.T) {
	client := newMemRedis()
	c := NewRedisCacheFromClient(client)
	contract(t, c)

	if err := c.Set(context.Background(), "compose:abc", []byte("{}"), TTLCompose); err != nil {
		t.Fatal(err)
	}
	if client.ttls["compose:abc"] != TTLCompose {
		t.Errorf("ttl = %v, want %v", client.ttls["compose:abc"], TTLCompose)
	}
	if err := c.Close(); err != nil || !client.closed {
		t.Errorf("Close() = %v, closed = %v", err, client.closed)
	}
}

func TestRedisCacheRetries(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		wantErr  bool
	}{
		{"transient", 2, false},
		{"persistent", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newMemRedis()
			client.data["k"] = []byte("v")
			client.failures = tt.failures
			c := NewRedisCacheFromClient(client)
			c.backoff = Backoff{Attempts: 3, Delay: time.Millisecond}

			data, hit, err := c.Get(context.Background(), "k")
			if tt.wantErr {
				if !errors.Is(err, ErrNetwork) || !IsRetryable(err) {
					t.Errorf("Get() error = %v, want a retryable network error", err)
				}
				return
			}
			if err != nil || !hit || string(data) != "v" {
				t.Errorf("Get() = %q, %v, %v", data, hit, err)
			}
		})
	}
}

func TestRedisWrap(t *testing.T) {
	c := NewRedisCacheFromClient(newMemRedis())
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"miss", redis.Nil, false},
		{"server error", errors.New("WRONGTYPE"), false},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.wrap(tt.err)
			if IsRetryable(got) != tt.retryable {
				t.Errorf("wrap(%v) retryable = %v, want %v", tt.err, IsRetryable(got), tt.retryable)
			}
			if tt.retryable && !errors.Is(got, ErrNetwork) {
				t.Errorf("wrap(%v) = %v, want ErrNetwork", tt.err, got)
			}
			if !tt.retryable && got != tt.err {
				t.Errorf("wrap(%v) = %v, want it unchanged", tt.err, got)
			}
		})
	}
}

func TestMongoWrap(t *testing.T) {
	c := &MongoCache{}
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"no documents", mongo.ErrNoDocuments, false},
		{"timeout", context.DeadlineExceeded, true},
		{"network label", mongo.CommandError{Message: "socket closed", Labels: []string{"NetworkError"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.wrap(tt.err)
			if IsRetryable(got) != tt.retryable {
				t.Errorf("wrap(%v) retryable = %v, want %v", tt.err, IsRetryable(got), tt.retryable)
			}
			if tt.retryable && !errors.Is(got, ErrNetwork) {
				t.Errorf("wrap(%v) = %v, want ErrNetwork", tt.err, got)
			}
		})
	}
}

func TestOpenRemoteBackends(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	closedAddr := ln.Addr().String()
	ln.Close()

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"redis unreachable", Options{Backend: BackendRedis, Redis: RedisOptions{Addr: closedAddr}}, "connect redis " + closedAddr},
		{"mongo bad uri", Options{Backend: BackendMongo, Mongo: MongoOptions{URI: "bogus://localhost"}}, "connect mongo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			c, err := Open(ctx, tt.opts)
			if err == nil {
				c.Close()
				t.Fatal("Open() succeeded, want an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Open() error = %v, want %q", err, tt.want)
			}
		})
	}
}
