package state

import (
	"github.com/rs/zerolog/log"

	"firmware-manager/internal/component"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/view"
)

// Update schedules the pending firmware update of e. Devices that need a
// dialog get a confirmation; Thelio I/O boards are flashed right away.
// Calling Update on a device without an update is a caller bug and is
// only logged.
func (s *State) Update(e entity.Entity) {
	latest, ok := s.components.Latest.Get(e)
	if !ok {
		log.Warn().
			Stringer("entity", e).
			Msg("Attempted to update firmware for a device which did not have updated firmware")
		return
	}

	w, ok := s.components.Display.Get(e)
	if !ok {
		log.Warn().Stringer("entity", e).Msg("Update requested for a device without a display handle")
		return
	}

	if phase, _ := s.components.Phase.Get(e); phase != component.PhaseIdle {
		log.Warn().
			Stringer("entity", e).
			Stringer("phase", phase).
			Msg("Update requested while the device is not idle")
		return
	}

	payload, _ := s.components.Payload.Get(e)
	switch p := payload.(type) {
	case *firmware.FwupdPayload:
		s.openConfirmation(view.Confirmation{
			Entity:      e,
			Kind:        firmware.KindFwupd,
			Latest:      latest,
			OnBattery:   s.onBattery,
			NeedsReboot: s.entities.IsSystem(e),
			Device:      p.Device,
			Releases:    p.Releases,
		})
	case *firmware.System76Payload:
		s.openConfirmation(view.Confirmation{
			Entity:      e,
			Kind:        firmware.KindSystem76,
			Latest:      latest,
			OnBattery:   s.onBattery,
			NeedsReboot: true,
			Digest:      p.Digest,
			Changelog:   p.Changelog,
		})
	case *firmware.ThelioPayload:
		s.startUpdate(e, w, ThelioRequest{Entity: e, Digest: p.Digest})
	default:
		log.Warn().
			Stringer("entity", e).
			Str("latest", latest).
			Msg("Device has an update but no backend payload to install it")
	}
}

// Confirm accepts the confirmation opened for e and hands the update to
// the worker.
func (s *State) Confirm(e entity.Entity) {
	c, ok := s.components.Confirming.Remove(e)
	if !ok {
		log.Warn().Stringer("entity", e).Msg("Update confirmed without an open confirmation")
		return
	}
	w, ok := s.components.Display.Get(e)
	if !ok {
		return
	}

	switch c.Kind {
	case firmware.KindFwupd:
		release, ok := c.Releases.Latest()
		if !ok {
			log.Warn().Stringer("entity", e).Msg("Confirmed fwupd update has no releases")
			s.components.Phase.Insert(e, component.PhaseIdle)
			return
		}
		s.startUpdate(e, w, FwupdRequest{Entity: e, Device: c.Device, Release: release})
	case firmware.KindSystem76:
		s.startUpdate(e, w, System76Request{Entity: e, Digest: c.Digest, Latest: c.Latest})
	default:
		log.Warn().Stringer("entity", e).Stringer("kind", c.Kind).Msg("Confirmation of unknown kind")
	}
}

// Cancel dismisses the confirmation opened for e.
func (s *State) Cancel(e entity.Entity) {
	if _, ok := s.components.Confirming.Remove(e); !ok {
		return
	}
	s.components.Phase.Insert(e, component.PhaseIdle)
	log.Info().Stringer("entity", e).Msg("Update cancelled")
}

func (s *State) openConfirmation(c view.Confirmation) {
	s.components.Confirming.Insert(c.Entity, c)
	s.components.Phase.Insert(c.Entity, component.PhaseConfirming)
	s.emit(view.ConfirmationOpened{Confirmation: c})

	log.Info().
		Stringer("entity", c.Entity).
		Stringer("backend", c.Kind).
		Str("latest", c.Latest).
		Bool("needs_reboot", c.NeedsReboot).
		Bool("on_battery", c.OnBattery).
		Msg("Update awaiting confirmation")
}

// startUpdate swaps the upgrade affordance for a progress bar and hands
// the request to the worker.
func (s *State) startUpdate(e entity.Entity, w view.Widget, r Request) {
	s.components.Phase.Insert(e, component.PhaseUpdating)
	w.SwitchToWaiting()
	s.emit(view.ProgressActivate{Widget: w})
	s.request(r)

	log.Info().Stringer("entity", e).Type("request", r).Msg("Firmware update scheduled")
}
