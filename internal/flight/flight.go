// Package flight coalesces concurrent calls that share a key.
//
// It wraps singleflight so that no single caller owns the shared call: the
// call runs under a context that is canceled only once every caller waiting
// on it has given up. Values of the first caller's context are kept.
package flight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Group is safe for concurrent use. The zero value is ready.
type Group struct {
	sf singleflight.Group

	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Do runs fn once for all concurrent callers of key and returns its result.
// A caller whose ctx ends stops waiting and gets ctx.Err(); fn keeps running
// for the rest and sees its context canceled only when none are left.
func (g *Group) Do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	c, ok := g.calls[key]
	if !ok {
		cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		c = &call{ctx: cctx, cancel: cancel}
		g.calls[key] = c
	}
	c.waiters++
	// Joining under g.mu keeps g.calls[key] and the singleflight entry for
	// key pointing at the same call.
	ch := g.sf.DoChan(key, func() (any, error) {
		defer g.done(key, c)
		return fn(c.ctx)
	})
	g.mu.Unlock()

	select {
	case res := <-ch:
		g.leave(key, c)
		return res.Val, res.Err
	case <-ctx.Done():
		g.leave(key, c)
		return nil, ctx.Err()
	}
}

// done unregisters c once fn has returned.
func (g *Group) done(key string, c *call) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls[key] == c {
		delete(g.calls, key)
	}
}

func (g *Group) leave(key string, c *call) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c.waiters--
	if c.waiters > 0 {
		return
	}
	c.cancel()
	if g.calls[key] == c {
		delete(g.calls, key)
		// Later callers start afresh instead of joining the canceled call.
		g.sf.Forget(key)
	}
}
