package state

import (
	"github.com/rs/zerolog/log"

	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/view"
)

// Reveal toggles the changelog of e. The content is generated on the first
// reveal only and reused afterwards.
func (s *State) Reveal(e entity.Entity) {
	w, ok := s.components.Display.Get(e)
	if !ok {
		log.Warn().Stringer("entity", e).Msg("Reveal requested for unknown device")
		return
	}

	revealer := w.Revealer()
	shown := !revealer.Revealed()
	if shown && revealer.Content() == nil {
		revealer.SetContent(s.changelog(e))
	}

	s.emit(view.Revealed{Entity: e, Shown: shown})
	revealer.SetRevealed(shown)
}

// changelog picks the content strategy from the payload shape of e.
func (s *State) changelog(e entity.Entity) *view.Content {
	payload, _ := s.components.Payload.Get(e)
	switch p := payload.(type) {
	case *firmware.FwupdPayload:
		return &view.Content{Entries: p.Releases.Changelog()}
	case *firmware.System76Payload:
		return &view.Content{Entries: p.Changelog.Entries()}
	default:
		return view.NoChangelog()
	}
}
