package view

import "firmware-manager/internal/entity"

// Event is an outbound notification from the state core to the
// presentation layer.
type Event interface {
	isEvent()
}

// Revealed reports the changelog visibility of a row after a reveal.
type Revealed struct {
	Entity entity.Entity
	Shown  bool
}

// HideRow asks for the row of a finished device to be hidden.
type HideRow struct {
	Entity entity.Entity
}

// ProgressActivate asks for the progress bar of a widget to start pulsing.
type ProgressActivate struct {
	Widget Widget
}

// ProgressDeactivate stops the pulsing of a widget's progress bar.
type ProgressDeactivate struct {
	Widget Widget
}

// ConfirmationOpened asks for a confirmation dialog to be shown. The
// presentation layer answers with an UpdateConfirmed or UpdateCancelled
// event for the same entity.
type ConfirmationOpened struct {
	Confirmation Confirmation
}

// ErrorReported carries a failure reported by the worker. Entity is zero
// when the failure is not tied to a device.
type ErrorReported struct {
	Entity  entity.Entity
	Message string
}

// ScanStateChanged reports the start and end of a device scan.
type ScanStateChanged struct {
	Scanning bool
}

func (Revealed) isEvent()           {}
func (HideRow) isEvent()            {}
func (ProgressActivate) isEvent()   {}
func (ProgressDeactivate) isEvent() {}
func (ConfirmationOpened) isEvent() {}
func (ErrorReported) isEvent()      {}
func (ScanStateChanged) isEvent()   {}
