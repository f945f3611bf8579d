package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another owner holds the lock.
	ErrLockNotAcquired = errors.New("lock is held by another owner")
	// ErrLockNotHeld is returned when the lock expired or changed owner.
	ErrLockNotHeld = errors.New("lock was not held by this client")
)

var (
	unlockScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)
	refreshScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// LockOptions represents options for distributed locking
type LockOptions struct {
	// TTL is the lock expiration time
	TTL time.Duration
	// RetryDelay is the delay between retry attempts
	RetryDelay time.Duration
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// RefreshInterval is the interval for refreshing the lock
	RefreshInterval time.Duration
	// LockNamespace is the namespace for organizing locks
	LockNamespace string
}

// NewLockOptions creates a new lock options with default values
func NewLockOptions() *LockOptions {
	return &LockOptions{
		TTL:             30 * time.Second,
		RetryDelay:      100 * time.Millisecond,
		MaxRetries:      10,
		RefreshInterval: 10 * time.Second,
	}
}

// WithTTL sets the lock expiration time
func (lo *LockOptions) WithTTL(ttl time.Duration) *LockOptions {
	lo.TTL = ttl
	return lo
}

// WithMaxRetries sets the maximum number of retry attempts
func (lo *LockOptions) WithMaxRetries(maxRetries int) *LockOptions {
	lo.MaxRetries = maxRetries
	return lo
}

// WithRefreshInterval sets the interval for refreshing the lock
func (lo *LockOptions) WithRefreshInterval(interval time.Duration) *LockOptions {
	lo.RefreshInterval = interval
	return lo
}

// WithLockNamespace sets the namespace for organizing locks
func (lo *LockOptions) WithLockNamespace(namespace string) *LockOptions {
	lo.LockNamespace = namespace
	return lo
}

// Lock represents a distributed lock
type Lock struct {
	client *Client
	key    string
	value  string
	opts   *LockOptions
}

// NewLock creates a new distributed lock
func NewLock(client *Client, key string, opts *LockOptions) *Lock {
	if opts == nil {
		opts = NewLockOptions()
	}
	return &Lock{
		client: client,
		key:    key,
		value:  uuid.New().String(),
		opts:   opts,
	}
}

// NewScheduledTaskLock creates a single attempt lock meant to be held for the
// whole life of a scheduler and kept alive with AutoRefresh. It is listed by
// GetLockStatus until unlocked.
func NewScheduledTaskLock(client *Client, name string, ttl, refreshInterval time.Duration, namespace string) *Lock {
	lock := NewLock(client, name, NewLockOptions().
		WithTTL(ttl).
		WithRefreshInterval(refreshInterval).
		WithMaxRetries(0).
		WithLockNamespace(namespace))

	registry.add(lock)
	return lock
}

// Key returns the full lock key using LockNamespace::lockKey format
func (l *Lock) Key() string {
	if l.opts.LockNamespace != "" {
		return l.opts.LockNamespace + "::" + l.key
	}
	return l.key
}

// Lock attempts to acquire the lock
func (l *Lock) Lock(ctx context.Context) error {
	fullKey := l.Key()
	for attempt := 0; attempt <= l.opts.MaxRetries; attempt++ {
		acquired, err := l.client.GetClient().SetNX(ctx, fullKey, l.value, l.opts.TTL).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if acquired {
			return nil
		}

		if attempt == l.opts.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.opts.RetryDelay):
		}
	}

	return fmt.Errorf("%w: %s after %d attempts", ErrLockNotAcquired, fullKey, l.opts.MaxRetries+1)
}

// Unlock releases the lock if this client still owns it
func (l *Lock) Unlock(ctx context.Context) error {
	registry.remove(l)

	result, err := unlockScript.Run(ctx, l.client.GetClient(), []string{l.Key()}, l.value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Refresh extends the lock's TTL
func (l *Lock) Refresh(ctx context.Context) error {
	result, err := refreshScript.Run(ctx, l.client.GetClient(), []string{l.Key()}, l.value, l.opts.TTL.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("failed to refresh lock: %w", err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// IsLocked checks if the lock is currently held by this client
func (l *Lock) IsLocked(ctx context.Context) (bool, error) {
	value, err := l.client.GetClient().Get(ctx, l.Key()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == l.value, nil
}

// AutoRefresh refreshes the lock every RefreshInterval until ctx is done or a
// refresh fails. The returned channel receives exactly one error: the refresh
// failure or ctx.Err().
func (l *Lock) AutoRefresh(ctx context.Context) <-chan error {
	errChan := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(l.opts.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			case <-ticker.C:
				if err := l.Refresh(ctx); err != nil {
					errChan <- err
					return
				}
			}
		}
	}()

	return errChan
}

type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*Lock
}

var registry = &lockRegistry{locks: make(map[string]*Lock)}

func (r *lockRegistry) add(lock *Lock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[lock.Key()] = lock
}

func (r *lockRegistry) remove(lock *Lock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks[lock.Key()] == lock {
		delete(r.locks, lock.Key())
	}
}

// GetLockStatus reports, per scheduled task lock key, whether this process
// currently owns it. Lookup errors report false.
func GetLockStatus(ctx context.Context) map[string]bool {
	registry.mu.Lock()
	locks := make([]*Lock, 0, len(registry.locks))
	for _, lock := range registry.locks {
		locks = append(locks, lock)
	}
	registry.mu.Unlock()

	status := make(map[string]bool, len(locks))
	for _, lock := range locks {
		held, err := lock.IsLocked(ctx)
		status[lock.Key()] = err == nil && held
	}
	return status
}
