// Package view defines the contract between the state core and whatever
// presentation layer renders the device list, plus a headless in-memory
// implementation used by the HTTP front end.
package view

import (
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
)

// Content is changelog content materialised for a revealer. Once handed to
// a revealer it is never modified.
type Content struct {
	Entries []firmware.Entry
	// None marks the "no changelog available" placeholder.
	None bool
}

// NoChangelog returns the placeholder content.
func NoChangelog() *Content {
	return &Content{None: true}
}

// Revealer is the collapsible changelog area of a device row.
type Revealer interface {
	Revealed() bool
	SetRevealed(shown bool)
	// Content returns the cached content, or nil before the first reveal.
	Content() *Content
	SetContent(c *Content)
}

// Widget is the display handle of one device row.
type Widget interface {
	SetProgress(fraction float64)
	SetLabel(text string)
	// SetUpgradeable shows or hides the upgrade affordance. While shown,
	// activating it raises an update request tagged with the row's entity.
	SetUpgradeable(upgradeable bool)
	// SwitchToWaiting swaps the upgrade affordance for a progress bar.
	SwitchToWaiting()
	Revealer() Revealer
}

// View creates and arranges device rows. Rows raise reveal requests tagged
// with the entity they were created for.
type View interface {
	Device(e entity.Entity, info firmware.Info) Widget
	System(e entity.Entity, info firmware.Info) Widget
	ShowDevices()
	ShowEmpty()
	Clear()
}

// Confirmation is the data a confirmation dialog needs before an update
// is scheduled.
type Confirmation struct {
	Entity      entity.Entity
	Kind        firmware.Kind
	Latest      string
	OnBattery   bool
	NeedsReboot bool

	// fwupd
	Device   firmware.Device
	Releases firmware.Releases

	// system76
	Digest    firmware.Digest
	Changelog firmware.Changelog
}
