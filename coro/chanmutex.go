package coro

import "sync"

// chanMutex is a plain mutex today. On the microcontroller target this
// design note says host locking "collapses to no-ops" since only one
// cooperative thread ever touches channel state; this module targets the
// host exclusively, so the lock stays real rather than conditionally
// compiled away.
type chanMutex struct{ mu sync.Mutex }

func (m *chanMutex) Lock()   { m.mu.Lock() }
func (m *chanMutex) Unlock() { m.mu.Unlock() }
