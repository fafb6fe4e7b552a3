package state

import (
	"fmt"
	"time"

	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/notify"
	"firmware-manager/internal/view"
)

type fakeRevealer struct {
	shown    bool
	content  *view.Content
	contents int
}

func (r *fakeRevealer) Revealed() bool         { return r.shown }
func (r *fakeRevealer) SetRevealed(shown bool) { r.shown = shown }
func (r *fakeRevealer) Content() *view.Content { return r.content }
func (r *fakeRevealer) SetContent(c *view.Content) {
	r.contents++
	r.content = c
}

type fakeWidget struct {
	entity      entity.Entity
	system      bool
	calls       *[]string
	upgradeable bool
	waiting     bool
	progress    float64
	label       string
	revealer    fakeRevealer
}

func (w *fakeWidget) record(format string, args ...any) {
	*w.calls = append(*w.calls, fmt.Sprintf(format, args...))
}

func (w *fakeWidget) SetProgress(f float64) {
	w.progress = f
	w.record("progress %v %.2f", w.entity, f)
}

func (w *fakeWidget) SetLabel(text string) {
	w.label = text
	w.record("label %v %s", w.entity, text)
}

func (w *fakeWidget) SetUpgradeable(u bool) { w.upgradeable = u }

func (w *fakeWidget) SwitchToWaiting() {
	w.waiting = true
	w.record("waiting %v", w.entity)
}

func (w *fakeWidget) Revealer() view.Revealer { return &w.revealer }

type fakeView struct {
	calls   []string
	widgets map[entity.Entity]*fakeWidget
	empty   int
}

func newFakeView() *fakeView {
	return &fakeView{widgets: make(map[entity.Entity]*fakeWidget)}
}

func (v *fakeView) add(e entity.Entity, system bool) view.Widget {
	w := &fakeWidget{entity: e, system: system, calls: &v.calls}
	v.widgets[e] = w
	return w
}

func (v *fakeView) Device(e entity.Entity, _ firmware.Info) view.Widget { return v.add(e, false) }
func (v *fakeView) System(e entity.Entity, _ firmware.Info) view.Widget { return v.add(e, true) }
func (v *fakeView) ShowDevices()                                         {}
func (v *fakeView) ShowEmpty()                                           { v.empty++ }
func (v *fakeView) Clear() {
	v.widgets = make(map[entity.Entity]*fakeWidget)
	v.calls = append(v.calls, "clear")
}

type uiRecorder struct {
	events []view.Event
	calls  *[]string
	err    error
}

func (u *uiRecorder) Send(ev view.Event) error {
	if u.err != nil {
		return u.err
	}
	u.events = append(u.events, ev)
	*u.calls = append(*u.calls, fmt.Sprintf("emit %T", ev))
	return nil
}

func (u *uiRecorder) count(match func(view.Event) bool) int {
	n := 0
	for _, ev := range u.events {
		if match(ev) {
			n++
		}
	}
	return n
}

type workerRecorder struct {
	requests []Request
}

func (w *workerRecorder) Send(r Request) error {
	w.requests = append(w.requests, r)
	return nil
}

type rebootRecorder struct {
	calls *[]string
	n     int
}

func (r *rebootRecorder) Reboot() {
	r.n++
	*r.calls = append(*r.calls, "reboot")
}

type observerRecorder struct {
	updated  []notify.Updated
	failed   []notify.Failed
	progress []notify.Progress
}

func (o *observerRecorder) Updated(u notify.Updated)     { o.updated = append(o.updated, u) }
func (o *observerRecorder) Failed(f notify.Failed)       { o.failed = append(o.failed, f) }
func (o *observerRecorder) Progressed(p notify.Progress) { o.progress = append(o.progress, p) }

type timer struct {
	delay time.Duration
	fire  func()
}

// harness wires a State to recording fakes. Timers are captured instead of
// armed, and internal events are handled synchronously.
type harness struct {
	*State
	view     *fakeView
	ui       *uiRecorder
	worker   *workerRecorder
	reboot   *rebootRecorder
	observer *observerRecorder
	timers   []timer
}

func newHarness(opts Options) *harness {
	h := &harness{view: newFakeView(), worker: &workerRecorder{}, observer: &observerRecorder{}}
	h.ui = &uiRecorder{calls: &h.view.calls}
	h.reboot = &rebootRecorder{calls: &h.view.calls}

	opts.View = h.view
	opts.UI = h.ui
	opts.Worker = h.worker
	opts.Rebooter = h.reboot
	opts.Observer = h.observer
	opts.AfterFunc = func(d time.Duration, f func()) {
		h.timers = append(h.timers, timer{delay: d, fire: f})
	}

	h.State = New(opts)
	h.State.post = h.State.Handle
	return h
}

// only returns the single entity discovered so far.
func (h *harness) only() entity.Entity {
	es := h.components.Entities()
	if len(es) != 1 {
		panic(fmt.Sprintf("expected one entity, got %d", len(es)))
	}
	return es[0]
}

func fwupdFound(current, latest string, upgradeable, reboot bool) GenericDeviceFound {
	return GenericDeviceFound{
		Info:        firmware.Info{Name: "Embedded Controller", Current: current, Latest: latest},
		Device:      firmware.Device{ID: "ec0", Name: "Embedded Controller", NeedsReboot: reboot},
		Upgradeable: upgradeable,
		Releases: firmware.NewReleases(
			firmware.Release{Version: "1.1", Description: "first"},
			firmware.Release{Version: "1.3", Description: "third"},
			firmware.Release{Version: "1.2", Description: "second"},
		),
	}
}
