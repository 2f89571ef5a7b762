package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/pkg/util"
)

// CooldownState is the persisted throttle record for one email address.
// It survives process restarts so a user cannot dodge the cooldown by
// reloading or switching devices.
type CooldownState struct {
	LastSentAt      time.Time `json:"last_sent_at"`
	CooldownSeconds int       `json:"cooldown_seconds"`
	CooldownSetAt   time.Time `json:"cooldown_set_at"`
}

// CooldownStore persists per-email cooldown state.
type CooldownStore interface {
	Get(ctx context.Context, email string) (*CooldownState, error)
	Set(ctx context.Context, email string, state *CooldownState, ttl time.Duration) error
	Delete(ctx context.Context, email string) error
}

type redisCooldownStore struct {
	client *redis.Client
}

// NewRedisCooldownStore builds a Redis-backed store.
func NewRedisCooldownStore(client *redis.Client) CooldownStore {
	return &redisCooldownStore{client: client}
}

func cooldownKey(email string) string {
	return fmt.Sprintf("magiclink:cooldown:%s", email)
}

func (s *redisCooldownStore) Get(ctx context.Context, email string) (*CooldownState, error) {
	var state CooldownState
	err := s.client.Get(ctx, cooldownKey(email)).Scan(&state)
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *redisCooldownStore) Set(ctx context.Context, email string, state *CooldownState, ttl time.Duration) error {
	return s.client.Set(ctx, cooldownKey(email), state, ttl).Err()
}

func (s *redisCooldownStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, cooldownKey(email)).Err()
}

// MarshalBinary implements encoding.BinaryMarshaler for redis Set.
func (cs *CooldownState) MarshalBinary() ([]byte, error) {
	return []byte(fmt.Sprintf("%d|%d|%d", cs.LastSentAt.Unix(), cs.CooldownSeconds, cs.CooldownSetAt.Unix())), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for redis Get.
func (cs *CooldownState) UnmarshalBinary(data []byte) error {
	var lastSent, setAt int64
	if _, err := fmt.Sscanf(string(data), "%d|%d|%d", &lastSent, &cs.CooldownSeconds, &setAt); err != nil {
		return err
	}
	cs.LastSentAt = time.Unix(lastSent, 0)
	cs.CooldownSetAt = time.Unix(setAt, 0)
	return nil
}

// MagicLinkLimiter throttles sign-in link sends per email. Sends inside
// the minimum interval are denied with an escalating cooldown: the first
// denial starts at the base cooldown, each further attempt during an
// active cooldown doubles it up to the cap, and a successful sign-in
// resets the state entirely.
type MagicLinkLimiter struct {
	store CooldownStore
	cfg   config.MagicLinkConfig
	now   func() time.Time
}

// NewMagicLinkLimiter builds a limiter.
func NewMagicLinkLimiter(store CooldownStore, cfg config.MagicLinkConfig) *MagicLinkLimiter {
	return &MagicLinkLimiter{store: store, cfg: cfg, now: time.Now}
}

// Allow checks whether a link may be sent to the email right now. On
// success it records the send time. On denial it returns a RATE_LIMITED
// error carrying the seconds remaining.
func (l *MagicLinkLimiter) Allow(ctx context.Context, email string) error {
	now := l.now()

	state, err := l.store.Get(ctx, email)
	if err != nil {
		return util.NewInternalError(err)
	}

	if state != nil && state.CooldownSeconds > 0 {
		cooldownEnds := state.CooldownSetAt.Add(time.Duration(state.CooldownSeconds) * time.Second)
		if now.Before(cooldownEnds) {
			// Attempt during an active cooldown: double and restart it.
			next := state.CooldownSeconds * 2
			if next > l.cfg.CooldownCapSec {
				next = l.cfg.CooldownCapSec
			}
			state.CooldownSeconds = next
			state.CooldownSetAt = now
			if err := l.store.Set(ctx, email, state, l.stateTTL()); err != nil {
				return util.NewInternalError(err)
			}
			return util.NewRateLimited(next)
		}
	}

	if state != nil && now.Sub(state.LastSentAt) < time.Duration(l.cfg.MinSendIntervalSec)*time.Second {
		// Resend too soon after a granted send: start the base cooldown.
		state.CooldownSeconds = l.cfg.CooldownBaseSec
		state.CooldownSetAt = now
		if err := l.store.Set(ctx, email, state, l.stateTTL()); err != nil {
			return util.NewInternalError(err)
		}
		return util.NewRateLimited(l.cfg.CooldownBaseSec)
	}

	next := &CooldownState{LastSentAt: now}
	if err := l.store.Set(ctx, email, next, l.stateTTL()); err != nil {
		return util.NewInternalError(err)
	}
	return nil
}

// Reset clears throttle state after a successful sign-in.
func (l *MagicLinkLimiter) Reset(ctx context.Context, email string) error {
	return l.store.Delete(ctx, email)
}

func (l *MagicLinkLimiter) stateTTL() time.Duration {
	// Keep state a little past the largest possible cooldown.
	return time.Duration(l.cfg.CooldownCapSec)*time.Second + time.Hour
}
