package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"

	"github.com/altshop/storefront/internal/domain/cart"
	"github.com/altshop/storefront/internal/domain/shop"
)

// GoroutineCountCheck reports unhealthy when the goroutine count exceeds
// threshold. Liveness check for goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		count := runtime.NumGoroutine()
		if count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// GCMaxPauseCheck reports unhealthy when any recorded stop-the-world GC pause
// exceeds threshold. Liveness check for heap pressure.
func GCMaxPauseCheck(threshold time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)

		for _, pause := range stats.Pause {
			if pause > threshold {
				return errors.Errorf("GC pause %s exceeds threshold %s", pause, threshold)
			}
		}
		return nil
	}
}

// ShopSource is the slice of the shop resolver the readiness check needs.
type ShopSource interface {
	Current(ctx context.Context) (*shop.Shop, error)
}

// ShopConfigCheck reports ready once the commerce backend has served the shop
// configuration. The resolver caches the first success, so after that the
// check is a memory read and readiness no longer depends on backend uptime.
func ShopConfigCheck(src ShopSource) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := src.Current(ctx); err != nil {
			return errors.Wrap(err, "resolve shop")
		}
		return nil
	}
}

// sessionCheckKey is reserved for readiness round-trips; real session keys
// are UUIDs and cannot collide with it.
const sessionCheckKey = "healthcheck"

// SessionStoreCheck round-trips a sentinel value through the cart identifier
// store. Catches connectivity loss to Redis before cart traffic does.
func SessionStoreCheck(store cart.IdentifierStore) CheckFunc {
	return func(ctx context.Context) error {
		if err := store.Save(ctx, sessionCheckKey, "ok"); err != nil {
			return errors.Wrap(err, "save")
		}
		got, err := store.Load(ctx, sessionCheckKey)
		if err != nil {
			return errors.Wrap(err, "load")
		}
		if got != "ok" {
			return errors.Errorf("read back %q, want %q", got, "ok")
		}
		if err := store.Clear(ctx, sessionCheckKey); err != nil {
			return errors.Wrap(err, "clear")
		}
		return nil
	}
}
