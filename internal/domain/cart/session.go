package cart

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// maxCartAttempts bounds the lost-cart recovery loop: the original attempt
// plus exactly one retry against a freshly created cart.
const maxCartAttempts = 2

// Manager owns the cart lifecycle for every session: identifier persistence,
// reconciliation with the remote cart, and recovery when the server no longer
// knows the identifier. Mutations are serialized per session so responses
// apply in request order.
type Manager struct {
	gateway   Gateway
	store     IdentifierStore
	shop      ShopResolver
	returnURL string

	locks lockTable

	mu    sync.Mutex
	cache map[string]*Cart
}

// NewManager creates a Manager. returnURL is sent on cart creation so the
// backend can link back to the storefront after checkout.
func NewManager(gateway Gateway, store IdentifierStore, shop ShopResolver, returnURL string) *Manager {
	return &Manager{
		gateway:   gateway,
		store:     store,
		shop:      shop,
		returnURL: returnURL,
		cache:     make(map[string]*Cart),
	}
}

// Current returns the session's cart, fetching it lazily from the server.
// A session without an identifier is simply empty (nil cart, nil error).
// When the stored identifier cannot be fetched the identifier is discarded
// and the session reported empty; stale identifiers must not wedge a session.
func (m *Manager) Current(ctx context.Context, session string) (*Cart, error) {
	unlock := m.locks.lock(session)
	defer unlock()

	cartID, err := m.store.Load(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "load cart identifier")
	}
	if cartID == "" {
		return nil, nil
	}

	c, err := m.gateway.Get(ctx, cartID)
	if err != nil {
		zctx.From(ctx).Info("Discarding unfetchable cart",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
		if cerr := m.clearState(ctx, session); cerr != nil {
			return nil, cerr
		}
		return nil, nil
	}

	m.setCached(session, c)
	return c, nil
}

// AddItem adds quantity units of a SKU to the session's cart, creating the
// cart first when the session has none. A stale identifier the server
// confirms missing is discarded and the add retried once against a new cart;
// any other failure propagates untouched.
func (m *Manager) AddItem(ctx context.Context, session, skuID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	unlock := m.locks.lock(session)
	defer unlock()

	cartID, err := m.store.Load(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "load cart identifier")
	}
	if cartID == "" {
		if cartID, err = m.createCart(ctx, session); err != nil {
			return nil, err
		}
	}

	c, err := m.retryOnLostCart(ctx, session, cartID, func(id string) (*Cart, error) {
		return m.gateway.AddItem(ctx, id, skuID, quantity)
	})
	if err != nil {
		return nil, err
	}

	m.setCached(session, c)
	return c, nil
}

// UpdateQuantity sets the quantity of an existing cart item. A confirmed
// missing cart clears local state and reports ErrExpired; transport and
// server failures propagate with state untouched.
func (m *Manager) UpdateQuantity(ctx context.Context, session, skuID string, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, &InvalidQuantityError{Quantity: quantity}
	}

	unlock := m.locks.lock(session)
	defer unlock()

	cartID, err := m.store.Load(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "load cart identifier")
	}
	if cartID == "" {
		return nil, ErrNoActiveCart
	}

	c, err := m.gateway.UpdateItemQuantity(ctx, cartID, skuID, quantity)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if cerr := m.clearState(ctx, session); cerr != nil {
				return nil, cerr
			}
			return nil, ErrExpired
		}
		return nil, err
	}

	m.setCached(session, c)
	return c, nil
}

// RemoveItem removes a SKU from the cart. Removing the last item also
// deletes the now-empty server cart (best effort) and empties the session.
func (m *Manager) RemoveItem(ctx context.Context, session, skuID string) (*Cart, error) {
	unlock := m.locks.lock(session)
	defer unlock()

	cartID, err := m.store.Load(ctx, session)
	if err != nil {
		return nil, errors.Wrap(err, "load cart identifier")
	}
	if cartID == "" {
		return nil, ErrNoActiveCart
	}

	c, err := m.gateway.RemoveItem(ctx, cartID, skuID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if cerr := m.clearState(ctx, session); cerr != nil {
				return nil, cerr
			}
			return nil, ErrExpired
		}
		return nil, err
	}

	if len(c.Items) == 0 {
		m.deleteBestEffort(ctx, cartID)
		if cerr := m.clearState(ctx, session); cerr != nil {
			return nil, cerr
		}
		return nil, nil
	}

	m.setCached(session, c)
	return c, nil
}

// Clear deletes the session's server cart (best effort) and unconditionally
// empties local state.
func (m *Manager) Clear(ctx context.Context, session string) error {
	unlock := m.locks.lock(session)
	defer unlock()

	cartID, err := m.store.Load(ctx, session)
	if err != nil {
		return errors.Wrap(err, "load cart identifier")
	}
	if cartID != "" {
		m.deleteBestEffort(ctx, cartID)
	}
	return m.clearState(ctx, session)
}

// Cached returns the last server response seen for the session without a
// network round-trip, or nil when the session is empty.
func (m *Manager) Cached(session string) *Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache[session]
}

// createCart resolves the shop, creates a server cart, and persists the new
// identifier. Shop resolution failure is fatal for the operation and never
// retried.
func (m *Manager) createCart(ctx context.Context, session string) (string, error) {
	shopID, err := m.shop.ShopID(ctx)
	if err != nil {
		return "", errors.Wrap(err, "resolve shop id")
	}

	c, err := m.gateway.Create(ctx, shopID, m.returnURL)
	if err != nil {
		return "", errors.Wrap(err, "create cart")
	}
	if c == nil || c.ID == "" {
		return "", errors.New("create cart: server returned no identifier")
	}

	if err := m.store.Save(ctx, session, c.ID); err != nil {
		return "", errors.Wrap(err, "save cart identifier")
	}
	m.setCached(session, c)
	return c.ID, nil
}

// retryOnLostCart is the bounded recovery policy for cart-scoped mutations:
// when the server confirms the cart missing, discard the identifier, create
// a fresh cart, and run op once more. Capped at maxCartAttempts total
// attempts; every other error kind breaks out immediately.
func (m *Manager) retryOnLostCart(ctx context.Context, session, cartID string, op func(cartID string) (*Cart, error)) (*Cart, error) {
	for attempt := 1; ; attempt++ {
		c, err := op(cartID)
		if err == nil {
			return c, nil
		}
		if attempt >= maxCartAttempts || !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		zctx.From(ctx).Info("Cart lost on server, recreating",
			zap.String("cart_id", cartID),
			zap.Int("attempt", attempt),
		)
		if cerr := m.clearState(ctx, session); cerr != nil {
			return nil, cerr
		}
		if cartID, err = m.createCart(ctx, session); err != nil {
			return nil, err
		}
	}
}

// deleteBestEffort removes a server cart, swallowing failures. Used when the
// cart is already empty locally and its fate on the server is cosmetic.
func (m *Manager) deleteBestEffort(ctx context.Context, cartID string) {
	if err := m.gateway.Delete(ctx, cartID); err != nil {
		zctx.From(ctx).Warn("Best-effort cart delete failed",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
	}
}

// clearState drops the cached cart and the stored identifier together,
// preserving the invariant that they exist or vanish as a pair.
func (m *Manager) clearState(ctx context.Context, session string) error {
	m.mu.Lock()
	delete(m.cache, session)
	m.mu.Unlock()

	if err := m.store.Clear(ctx, session); err != nil {
		return errors.Wrap(err, "clear cart identifier")
	}
	return nil
}

func (m *Manager) setCached(session string, c *Cart) {
	m.mu.Lock()
	m.cache[session] = c
	m.mu.Unlock()
}

// lockTable serializes cart mutations per session key using a fixed set of
// striped mutexes, keeping memory bounded regardless of session cardinality.
type lockTable struct {
	shards [64]sync.Mutex
}

func (t *lockTable) lock(session string) func() {
	h := fnv.New32a()
	h.Write([]byte(session))
	mu := &t.shards[h.Sum32()%uint32(len(t.shards))]
	mu.Lock()
	return mu.Unlock
}
