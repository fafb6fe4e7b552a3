package view

import "firmware-manager/internal/firmware"

// RowDTO is what the HTTP front end exposes for one device row.
type RowDTO struct {
	Entity      string           `json:"entity" example:"3" doc:"Opaque device identity"`
	Name        string           `json:"name" example:"Thelio Io" doc:"Device name"`
	System      bool             `json:"system" example:"false" doc:"Whether updating requires a reboot"`
	Version     string           `json:"version" example:"1.4" doc:"Displayed firmware version"`
	Latest      string           `json:"latest,omitempty" example:"1.5" doc:"Newest known firmware version"`
	Upgradeable bool             `json:"upgradeable" example:"true" doc:"Whether the upgrade action is offered"`
	Waiting     bool             `json:"waiting" example:"false" doc:"Whether an update is in flight"`
	Progress    float64          `json:"progress" example:"0.5" doc:"Download progress between 0 and 1"`
	Hidden      bool             `json:"hidden" example:"false" doc:"Whether the row was hidden after completion"`
	Revealed    bool             `json:"revealed" example:"false" doc:"Whether the changelog is shown"`
	Changelog   []firmware.Entry `json:"changelog,omitempty" doc:"Changelog entries once generated"`
	NoChangelog bool             `json:"noChangelog,omitempty" doc:"Whether the placeholder was generated"`
	Confirming  bool             `json:"confirming" example:"false" doc:"Whether a confirmation is pending"`
}

// BoardDTO is the whole device list.
type BoardDTO struct {
	Scanning  bool     `json:"scanning" example:"false" doc:"Whether a scan is running"`
	Empty     bool     `json:"empty" example:"false" doc:"Whether the last scan found no devices"`
	LastError string   `json:"lastError,omitempty" doc:"Last failure reported by the worker"`
	Devices   []RowDTO `json:"devices"`
}

// Snapshot copies the board into its DTO form.
func (b *Board) Snapshot() BoardDTO {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := BoardDTO{
		Scanning: b.scanning,
		Empty:    b.empty,
		Devices:  make([]RowDTO, 0, len(b.rows)),
	}
	if b.lastErr != nil {
		out.LastError = b.lastErr.Message
	}

	for _, e := range b.sortedEntities() {
		r := b.rows[e]
		dto := RowDTO{
			Entity:      e.String(),
			Name:        r.info.Name,
			System:      r.system,
			Version:     r.label,
			Latest:      r.info.Latest,
			Upgradeable: r.upgradeable,
			Waiting:     r.waiting,
			Progress:    r.progress,
			Hidden:      r.hidden,
			Revealed:    r.revealer.shown,
			Confirming:  r.confirm != nil,
		}
		if c := r.revealer.content; c != nil {
			dto.Changelog = c.Entries
			dto.NoChangelog = c.None
		}
		out.Devices = append(out.Devices, dto)
	}
	return out
}

// ConfirmationDTO is an open confirmation as exposed over HTTP.
type ConfirmationDTO struct {
	Entity      string             `json:"entity" example:"1" doc:"Opaque device identity"`
	Backend     string             `json:"backend" example:"fwupd" doc:"Backend that will install the update"`
	Latest      string             `json:"latest" example:"1.3.0" doc:"Version that will be installed"`
	OnBattery   bool               `json:"onBattery" example:"false" doc:"Whether the host runs from its battery"`
	NeedsReboot bool               `json:"needsReboot" example:"true" doc:"Whether the update needs a reboot"`
	Device      *firmware.Device   `json:"device,omitempty" doc:"fwupd device"`
	Releases    []firmware.Release `json:"releases,omitempty" doc:"fwupd releases, oldest first"`
	Digest      firmware.Digest    `json:"digest,omitempty" doc:"System76 firmware bundle digest"`
	Changelog   []firmware.Entry   `json:"changelog,omitempty" doc:"System76 changelog"`
}

// DTO converts c for the HTTP front end.
func (c Confirmation) DTO() ConfirmationDTO {
	out := ConfirmationDTO{
		Entity:      c.Entity.String(),
		Backend:     c.Kind.String(),
		Latest:      c.Latest,
		OnBattery:   c.OnBattery,
		NeedsReboot: c.NeedsReboot,
		Digest:      c.Digest,
	}
	if c.Kind == firmware.KindFwupd {
		d := c.Device
		out.Device = &d
		out.Releases = c.Releases
	}
	if len(c.Changelog.Versions) > 0 {
		out.Changelog = c.Changelog.Entries()
	}
	return out
}
