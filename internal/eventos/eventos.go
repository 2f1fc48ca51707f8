// Package eventos is the change feed behind live screens: every committed
// mutation of a product, sale or daily closing publishes an Evento, and
// subscribers re-run their queries when one arrives. Delivery is best-effort;
// a slow subscriber drops events instead of blocking the writer.
package eventos

import (
	"context"
	"sync"
	"time"
)

const (
	EntidadProducto = "producto"
	EntidadVenta    = "venta"
	EntidadCierre   = "cierre"

	AccionCreado      = "creado"
	AccionActualizado = "actualizado"
	AccionEliminado   = "eliminado"
)

type Evento struct {
	Entidad string    `json:"entidad"`
	Accion  string    `json:"accion"`
	ID      string    `json:"id"`
	At      time.Time `json:"at"`
}

// Publicador publishes and fans out change events.
type Publicador interface {
	Publicar(ctx context.Context, ev Evento)
	// Suscribir returns a channel of events and a cancel func that must be
	// called to release it. The channel is closed after cancel or when ctx ends.
	Suscribir(ctx context.Context) (<-chan Evento, func())
}

const bufferSuscriptor = 32

// Local fans events out in-process.
type Local struct {
	mu   sync.RWMutex
	subs map[chan Evento]struct{}
}

func NewLocal() *Local {
	return &Local{subs: make(map[chan Evento]struct{})}
}

func (l *Local) Publicar(_ context.Context, ev Evento) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (l *Local) Suscribir(ctx context.Context) (<-chan Evento, func()) {
	ch := make(chan Evento, bufferSuscriptor)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	return ch, alTerminar(ctx, func() {
		l.mu.Lock()
		delete(l.subs, ch)
		l.mu.Unlock()
		close(ch)
	})
}

// alTerminar returns an idempotent cancel func that runs release once, on
// the first call or when ctx ends, whichever comes first. The watcher
// goroutine exits in both cases.
func alTerminar(ctx context.Context, release func()) func() {
	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			release()
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return cancel
}

// Suscriptores reports how many subscriptions are open.
func (l *Local) Suscriptores() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publicar(context.Context, Evento) {}

func (Nop) Suscribir(ctx context.Context) (<-chan Evento, func()) {
	ch := make(chan Evento)
	return ch, alTerminar(ctx, func() { close(ch) })
}
