package escrow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	id "subvene/pkg/domain"
	dErrors "subvene/pkg/domain-errors"
)

// Locker serializes release attempts per subsidy. The lock must span both
// the ledger call and the local update so two concurrent accepts cannot each
// issue a release for the same milestone.
type Locker interface {
	// Lock acquires the subsidy's advisory lock, blocking until acquired or
	// ctx is done. The returned function releases it.
	Lock(ctx context.Context, subsidyID id.SubsidyID) (func(), error)
}

// KeyedMutex is the in-process Locker for single-instance deployments.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[id.SubsidyID]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[id.SubsidyID]*refLock)}
}

func (k *KeyedMutex) Lock(ctx context.Context, subsidyID id.SubsidyID) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[subsidyID]
	if !ok {
		l = &refLock{}
		k.locks[subsidyID] = l
	}
	l.refs++
	k.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() { k.unlock(subsidyID, l) }, nil
	case <-ctx.Done():
		// The goroutine will still grab the mutex eventually; hand it
		// straight back so the entry can be reclaimed.
		go func() {
			<-acquired
			k.unlock(subsidyID, l)
		}()
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for subsidy lock")
	}
}

func (k *KeyedMutex) unlock(subsidyID id.SubsidyID, l *refLock) {
	l.mu.Unlock()
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, subsidyID)
	}
	k.mu.Unlock()
}

// RedisLocker is the distributed Locker for multi-instance deployments,
// built on SET NX PX with a fencing value so only the owner can unlock.
type RedisLocker struct {
	client *goredis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *goredis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl, retry: 50 * time.Millisecond}
}

var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (r *RedisLocker) Lock(ctx context.Context, subsidyID id.SubsidyID) (func(), error) {
	key := "subvene:release-lock:" + subsidyID.String()
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "release lock store unavailable")
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = unlockScript.Run(releaseCtx, r.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for subsidy lock")
		case <-time.After(r.retry):
		}
	}
}
