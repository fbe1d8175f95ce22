package middleware

import "github.com/aretw0/statelift/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain composes middlewares so that the first one listed is the outermost.
// Chain(a, b)(store) == a(b(store)).
func Chain(mws ...Middleware) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] != nil {
				next = mws[i](next)
			}
		}
		return next
	}
}
