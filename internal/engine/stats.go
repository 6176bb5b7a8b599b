package engine

// Stats is a point-in-time snapshot of the engine's live object counts,
// handed to callers outside the loop goroutine (the admin REST surface)
// without letting them touch Store directly.
type Stats struct {
	Sessions  int
	Entities  int
	Chunks    int
	Planes    int
	Inventory int
	ClockMS   int64
}

// Stats computes a snapshot on the loop goroutine via Defer and blocks
// until it's ready — the same cross-goroutine handoff the network
// connect/disconnect callbacks use, reused here so the admin API never
// reads Store concurrently with the tick loop.
func (e *Engine) Stats() Stats {
	done := make(chan Stats, 1)
	e.Defer(func(now int64) {
		done <- Stats{
			Sessions:  len(e.clients),
			Entities:  e.Store.Entities.Len(),
			Chunks:    e.Store.Chunks.Len(),
			Planes:    e.Store.Planes.Len(),
			Inventory: e.Store.Inventories.Len(),
			ClockMS:   now,
		}
	})
	select {
	case s := <-done:
		return s
	case <-e.quit:
		return Stats{}
	}
}
