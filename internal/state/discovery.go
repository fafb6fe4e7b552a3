package state

import (
	"github.com/rs/zerolog/log"

	"firmware-manager/internal/component"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/view"
)

// device is everything a discovery handler decided about a new device.
// It is computed in full before an entity exists, so no entity is ever
// exposed half-populated.
type device struct {
	info        firmware.Info
	system      bool
	payload     firmware.Payload
	upgradeable bool
}

func (s *State) discover(ev Discovery) {
	if !s.backends[ev.Backend()] {
		log.Debug().
			Str("backend", string(ev.Backend())).
			Type("event", ev).
			Msg("Backend not registered, ignoring discovered device")
		return
	}

	var d device
	switch ev := ev.(type) {
	case GenericDeviceFound:
		d = fwupdDevice(ev)
	case VendorSystemFound:
		d = system76Device(ev)
	case VendorControllerFound:
		d = thelioDevice(ev)
	default:
		log.Warn().Type("event", ev).Msg("No discovery handler for event")
		return
	}
	s.createDevice(d)
}

func fwupdDevice(ev GenericDeviceFound) device {
	d := device{info: ev.Info, system: ev.Device.NeedsReboot}
	if ev.Info.HasLatest() {
		d.payload = &firmware.FwupdPayload{Device: ev.Device, Releases: ev.Releases}
		d.upgradeable = ev.Upgradeable
	}
	return d
}

func system76Device(ev VendorSystemFound) device {
	d := device{info: ev.Info, system: true}
	if ev.Info.HasLatest() {
		d.upgradeable = ev.Info.Latest != ev.Info.Current
		if ev.Downloaded != nil {
			d.payload = ev.Downloaded
		}
	}
	return d
}

func thelioDevice(ev VendorControllerFound) device {
	d := device{info: ev.Info}
	if ev.Digest != "" && ev.Info.HasLatest() {
		d.payload = &firmware.ThelioPayload{Digest: ev.Digest}
		d.upgradeable = ev.Info.Latest != ev.Info.Current
	}
	return d
}

// createDevice commits a discovered device: entity, components, then the
// display handle the presentation layer renders.
func (s *State) createDevice(d device) entity.Entity {
	e := s.entities.Create()
	if d.system {
		s.entities.MarkSystem(e)
	}

	s.components.Info.Insert(e, d.info)
	if d.payload != nil {
		s.components.Payload.Insert(e, d.payload)
	}
	if d.upgradeable {
		s.components.Latest.Insert(e, d.info.Latest)
		s.components.Phase.Insert(e, component.PhaseIdle)
	}

	var w view.Widget
	if d.system {
		w = s.view.System(e, d.info)
	} else {
		w = s.view.Device(e, d.info)
	}
	w.SetUpgradeable(d.upgradeable)
	s.components.Display.Insert(e, w)
	s.view.ShowDevices()

	log.Info().
		Stringer("entity", e).
		Str("name", d.info.Name).
		Str("backend", firmware.KindOf(d.payload).String()).
		Str("current", d.info.Current).
		Str("latest", d.info.Latest).
		Bool("system", d.system).
		Bool("upgradeable", d.upgradeable).
		Msg("Device discovered")

	return e
}
