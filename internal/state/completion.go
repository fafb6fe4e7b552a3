package state

import (
	"time"

	"github.com/rs/zerolog/log"

	"firmware-manager/internal/component"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/notify"
	"firmware-manager/internal/view"
)

// DeviceUpdated finalizes a successful update of e to latest: the row is
// filled and relabelled, a reboot is requested for system firmware, and
// the row is hidden once the hide delay elapsed.
func (s *State) DeviceUpdated(e entity.Entity, latest string) {
	w, ok := s.components.Display.Get(e)
	if !ok {
		log.Warn().Stringer("entity", e).Str("version", latest).Msg("Update completed for unknown device")
		return
	}

	w.SetProgress(1)
	w.SetLabel(latest)
	s.emit(view.ProgressDeactivate{Widget: w})

	info, _ := s.components.Info.Get(e)
	from := info.Current
	info.Current = latest
	s.components.Info.Insert(e, info)
	s.components.Latest.Remove(e)
	s.components.Progress.Remove(e)
	s.components.Confirming.Remove(e)
	s.components.Phase.Insert(e, component.PhaseCompleted)

	system := s.entities.IsSystem(e)
	if system && s.rebooter != nil {
		s.rebooter.Reboot()
	}

	payload, _ := s.components.Payload.Get(e)
	s.observer.Updated(notify.Updated{
		Entity:  e,
		Name:    info.Name,
		Backend: firmware.KindOf(payload),
		From:    from,
		To:      latest,
		System:  system,
		At:      time.Now(),
	})

	log.Info().
		Stringer("entity", e).
		Str("name", info.Name).
		Str("from", from).
		Str("to", latest).
		Bool("reboot", system).
		Msg("Firmware updated")

	s.afterFunc(s.hideDelay, func() { s.post(hideRowDue{Entity: e}) })
}

// hideRow runs when the hide delay of e elapsed. Rows that no longer exist
// or that the presentation layer already hid are left alone.
func (s *State) hideRow(e entity.Entity) {
	if !s.components.Display.Has(e) {
		log.Debug().Stringer("entity", e).Msg("Suppressing hide of a row that no longer exists")
		return
	}
	if hidden, _ := s.components.Hidden.Get(e); hidden {
		log.Debug().Stringer("entity", e).Msg("Row already hidden")
		return
	}

	s.components.Hidden.Insert(e, true)
	s.emit(view.HideRow{Entity: e})
}

func (s *State) rowVisibility(e entity.Entity, shown bool) {
	if !s.components.Display.Has(e) {
		return
	}
	if shown {
		s.components.Hidden.Remove(e)
		return
	}
	s.components.Hidden.Insert(e, true)
}
