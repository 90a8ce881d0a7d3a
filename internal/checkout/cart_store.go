package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/internal/order"
	redisclient "github.com/angelmondragon/storepos-backend/pkg/redis"
)

// DefaultCartTTL bounds how long an abandoned cart survives.
const DefaultCartTTL = 12 * time.Hour

// claimTTL caps how long a crashed checkout can keep a cart locked.
const claimTTL = 30 * time.Second

// ErrCartBusy is returned by Claim while another checkout holds the cart.
var ErrCartBusy = errors.New("cart checkout in progress")

type cartBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ReleaseLock(ctx context.Context, key, token string) (bool, error)
	CartKey(userID string) string
	CheckoutLockKey(userID string) string
}

// ReleaseFunc gives a claimed cart back.
type ReleaseFunc func(ctx context.Context) error

// WorkingCart is the cart of one cashier plus the store its lines come from.
// All lines of a cart belong to the same store.
type WorkingCart struct {
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	StoreName string     `json:"store_name,omitempty"`
	Cart      order.Cart `json:"cart"`
}

// CartStore keeps working carts in Redis, one key per user. Every mutation
// replaces the whole value.
type CartStore struct {
	backend cartBackend
	ttl     time.Duration
}

func NewCartStore(backend cartBackend, ttl time.Duration) (*CartStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("cart backend required")
	}
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartStore{backend: backend, ttl: ttl}, nil
}

// Load returns the user's cart; a missing key is an empty cart.
func (s *CartStore) Load(ctx context.Context, userID uuid.UUID) (WorkingCart, error) {
	raw, err := s.backend.Get(ctx, s.backend.CartKey(userID.String()))
	if err != nil {
		if redisclient.IsNil(err) {
			return WorkingCart{}, nil
		}
		return WorkingCart{}, err
	}
	var wc WorkingCart
	if err := json.Unmarshal([]byte(raw), &wc); err != nil {
		return WorkingCart{}, fmt.Errorf("decoding cart: %w", err)
	}
	return wc, nil
}

// Save stores wc, deleting the key once the cart is empty.
func (s *CartStore) Save(ctx context.Context, userID uuid.UUID, wc WorkingCart) error {
	key := s.backend.CartKey(userID.String())
	if wc.Cart.IsEmpty() {
		return s.backend.Del(ctx, key)
	}
	payload, err := json.Marshal(wc)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	return s.backend.Set(ctx, key, string(payload), s.ttl)
}

// Claim locks the user's cart for one checkout. It fails with ErrCartBusy when
// another checkout already holds it. Release only drops a lock this call owns.
func (s *CartStore) Claim(ctx context.Context, userID uuid.UUID) (ReleaseFunc, error) {
	key := s.backend.CheckoutLockKey(userID.String())
	token := uuid.NewString()
	ok, err := s.backend.SetNX(ctx, key, token, claimTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCartBusy
	}
	return func(ctx context.Context) error {
		_, err := s.backend.ReleaseLock(ctx, key, token)
		return err
	}, nil
}
