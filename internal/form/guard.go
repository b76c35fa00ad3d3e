// guard.go - At most one in-flight capture per record field group

package form

import "sync"

// Field groups that share a capture control
const (
	GroupVehicle   = "vehicle"
	GroupKilometer = "kilometer"
	GroupDocument  = "document"
)

// Guard tracks which (record, group) pairs have a capture in flight
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAcquire marks (recordID, group) busy. It returns false if it already was.
// The returned release func must be called exactly once when ok is true.
func (g *Guard) TryAcquire(recordID, group string) (release func(), ok bool) {
	key := recordID + "/" + group

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[key]; busy {
		return nil, false
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, true
}

// Busy reports whether (recordID, group) has a capture in flight
func (g *Guard) Busy(recordID, group string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[recordID+"/"+group]
	return busy
}
