package generator

import (
	"sync"

	"github.com/starford/cinesuite/internal/apperr"
)

// Tickets orders overlapping requests per key. Only the result of the most
// recently started request for a key may be applied.
type Tickets struct {
	mu     sync.Mutex
	latest map[string]uint64
	seq    uint64
}

func NewTickets() *Tickets {
	return &Tickets{latest: make(map[string]uint64)}
}

// Ticket identifies one request.
type Ticket struct {
	key string
	n   uint64
}

func (t Ticket) Key() string { return t.key }

// Begin starts a request for key and supersedes any earlier one.
func (t *Tickets) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.latest[key] = t.seq
	return Ticket{key: key, n: t.seq}
}

// Check returns apperr.ErrSuperseded if a newer request for the same key began.
func (t *Tickets) Check(tk Ticket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[tk.key] != tk.n {
		return apperr.ErrSuperseded
	}
	return nil
}

// Done releases the key if tk is still the latest request.
func (t *Tickets) Done(tk Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[tk.key] == tk.n {
		delete(t.latest, tk.key)
	}
}
