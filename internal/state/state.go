package state

import (
	"time"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/component"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/notify"
	"firmware-manager/internal/view"
)

// DefaultHideDelay is how long a finished row stays visible at 100%.
const DefaultHideDelay = time.Second

// Rebooter restarts the machine. Reboot must return immediately.
type Rebooter interface {
	Reboot()
}

// Options configures a State.
type Options struct {
	View     view.View
	UI       UISink
	Worker   WorkerSink
	Rebooter Rebooter
	Observer notify.Observer

	// OnBattery is read once at startup.
	OnBattery bool

	// HideDelay defaults to DefaultHideDelay.
	HideDelay time.Duration

	// Backends lists the discovery handlers to register. Empty registers
	// every backend.
	Backends []Backend

	// AfterFunc arms one-shot timers. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func())
}

// State owns the entity registry and the component store.
//
// State is not safe for concurrent use. Drive it through a Loop.
type State struct {
	entities   *entity.Registry
	components *component.Store

	view     view.View
	ui       UISink
	worker   WorkerSink
	rebooter Rebooter
	observer notify.Observer

	onBattery bool
	hideDelay time.Duration
	backends  map[Backend]bool
	afterFunc func(time.Duration, func())

	// post feeds events back into the owning loop. Set by NewLoop.
	post func(Event)
}

// New builds a State from opts.
func New(opts Options) *State {
	s := &State{
		entities:   entity.NewRegistry(),
		components: component.NewStore(),
		view:       opts.View,
		ui:         opts.UI,
		worker:     opts.Worker,
		rebooter:   opts.Rebooter,
		observer:   opts.Observer,
		onBattery:  opts.OnBattery,
		hideDelay:  opts.HideDelay,
		backends:   make(map[Backend]bool),
		afterFunc:  opts.AfterFunc,
	}

	if s.observer == nil {
		s.observer = notify.Nop{}
	}
	if s.hideDelay <= 0 {
		s.hideDelay = DefaultHideDelay
	}
	if s.afterFunc == nil {
		s.afterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}

	backends := opts.Backends
	if len(backends) == 0 {
		backends = []Backend{BackendFwupd, BackendSystem76}
	}
	for _, b := range backends {
		s.backends[b] = true
	}

	s.post = func(ev Event) {
		log.Warn().Type("event", ev).Msg("State is not attached to a loop, dropping event")
	}
	return s
}

// Handle applies one event. It must only be called from the loop goroutine.
func (s *State) Handle(ev Event) {
	switch ev := ev.(type) {
	case Discovery:
		s.discover(ev)
	case UpdateCompleted:
		s.DeviceUpdated(ev.Entity, ev.Version)
	case DownloadBegin:
		s.downloadBegin(ev.Entity, ev.Total)
	case DownloadProgress:
		s.downloadProgress(ev.Entity, ev.Bytes)
	case DownloadComplete:
		s.components.Progress.Remove(ev.Entity)
	case WorkerError:
		s.workerError(ev)
	case ScanStarted:
		s.emit(view.ScanStateChanged{Scanning: true})
	case ScanCompleted:
		s.scanCompleted()
	case Reveal:
		s.Reveal(ev.Entity)
	case UpdateRequested:
		s.Update(ev.Entity)
	case UpdateConfirmed:
		s.Confirm(ev.Entity)
	case UpdateCancelled:
		s.Cancel(ev.Entity)
	case RescanRequested:
		s.rescan()
	case RowVisibility:
		s.rowVisibility(ev.Entity, ev.Shown)
	case hideRowDue:
		s.hideRow(ev.Entity)
	default:
		log.Warn().Type("event", ev).Msg("Unhandled state event")
	}
}

// IsSystem reports whether e was tagged as a system device.
func (s *State) IsSystem(e entity.Entity) bool {
	return s.entities.IsSystem(e)
}

// Phase returns the lifecycle phase of e, if e is upgradeable.
func (s *State) Phase(e entity.Entity) (component.Phase, bool) {
	return s.components.Phase.Get(e)
}

// Latest returns the newest known version of e, if an update exists.
func (s *State) Latest(e entity.Entity) (string, bool) {
	return s.components.Latest.Get(e)
}

// Progress returns the download counters of e while a download is active.
func (s *State) Progress(e entity.Entity) (component.Progress, bool) {
	return s.components.Progress.Get(e)
}

func (s *State) emit(ev view.Event) {
	if err := s.ui.Send(ev); err != nil {
		log.Debug().Err(err).Type("event", ev).Msg("Dropped presentation event")
	}
}

func (s *State) request(r Request) {
	if err := s.worker.Send(r); err != nil {
		log.Debug().Err(err).Type("request", r).Msg("Dropped worker request")
	}
}

func (s *State) name(e entity.Entity) string {
	info, _ := s.components.Info.Get(e)
	return info.Name
}
