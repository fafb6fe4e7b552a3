package view

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
)

// Board is a headless View. The state core mutates rows from its loop
// goroutine while HTTP handlers read snapshots, so every access goes
// through the board mutex.
type Board struct {
	mu       sync.RWMutex
	rows     map[entity.Entity]*row
	empty    bool
	scanning bool
	lastErr  *ErrorReported
}

type row struct {
	board *Board

	entity      entity.Entity
	info        firmware.Info
	system      bool
	label       string
	upgradeable bool
	waiting     bool
	pulsing     bool
	progress    float64
	hidden      bool
	expanded    bool
	confirm     *Confirmation
	revealer    revealer
}

type revealer struct {
	board   *Board
	shown   bool
	content *Content
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{rows: make(map[entity.Entity]*row)}
}

// Device adds a row for a regular device.
func (b *Board) Device(e entity.Entity, info firmware.Info) Widget {
	return b.add(e, info, false)
}

// System adds a row for a system device.
func (b *Board) System(e entity.Entity, info firmware.Info) Widget {
	return b.add(e, info, true)
}

func (b *Board) add(e entity.Entity, info firmware.Info, system bool) *row {
	r := &row{board: b, entity: e, info: info, system: system, label: info.Current}
	r.revealer.board = b

	b.mu.Lock()
	b.rows[e] = r
	b.mu.Unlock()
	return r
}

func (b *Board) ShowDevices() {
	b.mu.Lock()
	b.empty = false
	b.mu.Unlock()
}

func (b *Board) ShowEmpty() {
	b.mu.Lock()
	b.empty = true
	b.mu.Unlock()
}

func (b *Board) Clear() {
	b.mu.Lock()
	b.rows = make(map[entity.Entity]*row)
	b.mu.Unlock()
}

// Apply renders an outbound event from the state core.
func (b *Board) Apply(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev := ev.(type) {
	case Revealed:
		if r, ok := b.rows[ev.Entity]; ok {
			r.expanded = ev.Shown
		}
	case HideRow:
		if r, ok := b.rows[ev.Entity]; ok {
			r.hidden = true
		}
	case ProgressActivate:
		if r, ok := ev.Widget.(*row); ok {
			r.pulsing = true
		}
	case ProgressDeactivate:
		if r, ok := ev.Widget.(*row); ok {
			r.pulsing = false
		}
	case ConfirmationOpened:
		if r, ok := b.rows[ev.Confirmation.Entity]; ok {
			c := ev.Confirmation
			r.confirm = &c
		}
	case ErrorReported:
		e := ev
		b.lastErr = &e
	case ScanStateChanged:
		b.scanning = ev.Scanning
	default:
		log.Debug().Type("event", ev).Msg("Board ignored unknown event")
	}
}

// Confirmation returns the open confirmation of a row, if any.
func (b *Board) Confirmation(e entity.Entity) (Confirmation, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.rows[e]
	if !ok || r.confirm == nil {
		return Confirmation{}, false
	}
	return *r.confirm, true
}

// CloseConfirmation forgets the open confirmation of a row.
func (b *Board) CloseConfirmation(e entity.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.rows[e]; ok {
		r.confirm = nil
	}
}

// SetHidden records a visibility change made by the presentation side.
// It reports whether the row exists.
func (b *Board) SetHidden(e entity.Entity, hidden bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rows[e]
	if ok {
		r.hidden = hidden
	}
	return ok
}

// Has reports whether a row exists for e.
func (b *Board) Has(e entity.Entity) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.rows[e]
	return ok
}

func (r *row) SetProgress(fraction float64) {
	r.board.mu.Lock()
	r.progress = fraction
	r.board.mu.Unlock()
}

func (r *row) SetLabel(text string) {
	r.board.mu.Lock()
	r.label = text
	r.board.mu.Unlock()
}

func (r *row) SetUpgradeable(upgradeable bool) {
	r.board.mu.Lock()
	r.upgradeable = upgradeable
	r.board.mu.Unlock()
}

func (r *row) SwitchToWaiting() {
	r.board.mu.Lock()
	r.waiting = true
	r.confirm = nil
	r.board.mu.Unlock()
}

func (r *row) Revealer() Revealer {
	return &r.revealer
}

func (v *revealer) Revealed() bool {
	v.board.mu.RLock()
	defer v.board.mu.RUnlock()
	return v.shown
}

func (v *revealer) SetRevealed(shown bool) {
	v.board.mu.Lock()
	v.shown = shown
	v.board.mu.Unlock()
}

func (v *revealer) Content() *Content {
	v.board.mu.RLock()
	defer v.board.mu.RUnlock()
	return v.content
}

func (v *revealer) SetContent(c *Content) {
	v.board.mu.Lock()
	v.content = c
	v.board.mu.Unlock()
}

var (
	_ View   = (*Board)(nil)
	_ Widget = (*row)(nil)
)

// sortedEntities returns rows in discovery order; callers hold the lock.
func (b *Board) sortedEntities() []entity.Entity {
	out := make([]entity.Entity, 0, len(b.rows))
	for e := range b.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
