// Package sse streams store and playback events to browser clients.
package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/cinesuite/internal/projectstore"
)

// Event types besides the store change ops.
const (
	TypeCatalog  = "catalog.updated"
	TypeReveal   = "playback.reveal"
	TypeCommit   = "playback.commit"
	TypeGenerate = "scene.generated"
	TypeInbox    = "inbox.file"
)

// DefaultHeartbeat is the idle interval after which ServeHTTP writes a
// comment line to keep proxies from closing the stream.
const DefaultHeartbeat = 15 * time.Second

// Event is one message sent to subscribed clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type subscriber struct {
	out      chan []byte
	prefixes []string
}

func (s subscriber) wants(eventType string) bool {
	if len(s.prefixes) == 0 {
		return true
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(eventType, p) {
			return true
		}
	}
	return false
}

// Broker fans events out to connected clients.
//
// One goroutine owns the subscriber set, the event sequence and the
// catalog throttle; everything else reaches it over channels.
type Broker struct {
	catalogEvery time.Duration
	heartbeat    time.Duration

	joinCh  chan subscriber
	leaveCh chan chan []byte
	eventCh chan Event
	storeCh chan projectstore.Change
	countCh chan chan int

	quit    chan struct{}
	done    chan struct{}
	closing atomic.Bool
}

// NewBroker starts a broker. catalogThrottle bounds how often a
// catalog.updated event follows store changes.
func NewBroker(catalogThrottle time.Duration) *Broker {
	if catalogThrottle <= 0 {
		catalogThrottle = 2 * time.Second
	}
	b := &Broker{
		catalogEvery: catalogThrottle,
		heartbeat:    DefaultHeartbeat,
		joinCh:       make(chan subscriber),
		leaveCh:      make(chan chan []byte),
		eventCh:      make(chan Event, 256),
		storeCh:      make(chan projectstore.Change, 256),
		countCh:      make(chan chan int),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go b.loop()
	return b
}

// SetHeartbeat changes the keep-alive interval used by new streams.
// Call it before serving.
func (b *Broker) SetHeartbeat(d time.Duration) {
	if d > 0 {
		b.heartbeat = d
	}
}

// frame renders one event in wire format. The id line lets a reconnecting
// EventSource report how far it got.
func frame(seq uint64, e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("id: ")
	buf.WriteString(strconv.FormatUint(seq, 10))
	buf.WriteString("\nevent: ")
	buf.WriteString(e.Type)
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

func (b *Broker) loop() {
	defer close(b.done)

	subs := make(map[chan []byte]subscriber)
	var (
		seq         uint64
		lastCatalog time.Time
	)

	send := func(e Event) {
		seq++
		raw, err := frame(seq, e)
		if err != nil {
			return
		}
		for _, s := range subs {
			if !s.wants(e.Type) {
				continue
			}
			select {
			case s.out <- raw:
			default:
				// client is behind; it misses this one
			}
		}
	}

	for {
		select {
		case <-b.quit:
			for ch := range subs {
				close(ch)
			}
			return

		case s := <-b.joinCh:
			subs[s.out] = s

		case ch := <-b.leaveCh:
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}

		case e := <-b.eventCh:
			send(e)

		case c := <-b.storeCh:
			send(Event{Type: c.Op, Data: c})
			if !changesCatalog(c) {
				continue
			}
			if now := time.Now(); now.Sub(lastCatalog) >= b.catalogEvery {
				lastCatalog = now
				send(Event{Type: TypeCatalog, Data: map[string]string{"projectId": c.ProjectID}})
			}

		case reply := <-b.countCh:
			reply <- len(subs)
		}
	}
}

// changesCatalog reports whether a store change can alter what the scene
// catalog indexes. Selection moves only the cursor.
func changesCatalog(c projectstore.Change) bool {
	switch c.Op {
	case projectstore.OpSelectProject, projectstore.OpSelectScene, projectstore.OpCreateProject:
		return false
	}
	return true
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closing.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe adds a client and returns its channel. With prefixes, only
// events whose type starts with one of them are delivered.
func (b *Broker) Subscribe(prefixes ...string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closing.Load() {
		close(ch)
		return ch
	}
	select {
	case b.joinCh <- subscriber{out: ch, prefixes: prefixes}:
	case <-b.done:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closing.Load() {
		return
	}
	select {
	case b.leaveCh <- ch:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closing.Load() {
		return 0
	}
	reply := make(chan int, 1)
	select {
	case b.countCh <- reply:
	case <-b.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.done:
		return 0
	}
}

// Publish queues an event for delivery.
func (b *Broker) Publish(e Event) {
	if b.closing.Load() {
		return
	}
	select {
	case b.eventCh <- e:
	case <-b.done:
	}
}

// PublishChange broadcasts a store change, followed by a throttled
// catalog.updated when scenes were touched. It has the signature of a
// projectstore observer.
func (b *Broker) PublishChange(c projectstore.Change) {
	if b.closing.Load() {
		return
	}
	select {
	case b.storeCh <- c:
	case <-b.done:
	}
}

// ServeHTTP is the event stream endpoint (GET /api/events). The optional
// "types" query parameter is a comma-separated list of type prefixes,
// e.g. ?types=playback.,scene.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var prefixes []string
	for _, p := range strings.Split(r.URL.Query().Get("types"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(prefixes...)
	defer b.Unsubscribe(ch)

	idle := time.NewTicker(b.heartbeat)
	defer idle.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-idle.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
			idle.Reset(b.heartbeat)
		}
	}
}
