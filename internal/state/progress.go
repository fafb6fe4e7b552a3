package state

import (
	"time"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/component"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/notify"
	"firmware-manager/internal/view"
)

func (s *State) downloadBegin(e entity.Entity, total uint64) {
	if !s.components.Display.Has(e) {
		log.Warn().Stringer("entity", e).Msg("Download started for unknown device")
		return
	}
	s.components.Progress.Insert(e, component.Progress{Total: total})
}

func (s *State) downloadProgress(e entity.Entity, n uint64) {
	p, ok := s.components.Progress.Get(e)
	if !ok {
		log.Debug().Stringer("entity", e).Msg("Download progress without an active download")
		return
	}
	p.Current += n
	if p.Total > 0 && p.Current > p.Total {
		p.Current = p.Total
	}
	s.components.Progress.Insert(e, p)

	if w, ok := s.components.Display.Get(e); ok {
		w.SetProgress(p.Fraction())
	}
	s.observer.Progressed(notify.Progress{
		Entity:  e,
		Name:    s.name(e),
		Current: p.Current,
		Total:   p.Total,
		At:      time.Now(),
	})
}

// workerError surfaces a worker failure. The phase of the device is left
// untouched; the worker owns any retry.
func (s *State) workerError(ev WorkerError) {
	log.Error().
		Stringer("entity", ev.Entity).
		Str("message", ev.Message).
		Msg("Firmware worker reported an error")

	s.emit(view.ErrorReported{Entity: ev.Entity, Message: ev.Message})
	s.observer.Failed(notify.Failed{
		Entity:  ev.Entity,
		Name:    s.name(ev.Entity),
		Message: ev.Message,
		At:      time.Now(),
	})
}

func (s *State) scanCompleted() {
	s.emit(view.ScanStateChanged{Scanning: false})
	if s.components.Display.Len() == 0 {
		s.view.ShowEmpty()
	}
	log.Info().Int("devices", s.components.Display.Len()).Msg("Device scan completed")
}

// rescan drops every device and asks the worker for a fresh scan. It is
// refused while an update is in flight.
func (s *State) rescan() {
	busy := false
	s.components.Phase.Each(func(_ entity.Entity, p component.Phase) {
		if p == component.PhaseUpdating {
			busy = true
		}
	})
	if busy {
		log.Warn().Msg("Rescan requested while an update is in progress, ignoring")
		return
	}

	s.components.Clear()
	s.view.Clear()
	s.request(ScanRequest{})
	log.Info().Msg("Device rescan requested")
}
