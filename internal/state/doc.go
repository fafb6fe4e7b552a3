// Package state tracks discovered firmware devices and drives their update
// lifecycle.
//
// Devices are entities (package entity) with optional components (package
// component). Every mutation happens on a single goroutine: the Loop reads
// one Event at a time from its queue and hands it to State.Handle. Worker
// reports, presentation actions and timers all reach the state through
// that queue; the state answers through a UISink and a WorkerSink whose
// sends never block.
//
// Lifecycle of an upgradeable device:
//
//	Idle -> Confirming -> Updating -> Completed
//	Idle ---------------> Updating -> Completed   (Thelio I/O, no dialog)
//
// Each device holds at most one firmware.Payload, so Update dispatches on
// that payload's kind and the fwupd, system76 and thelio paths can never
// compete for the same device.
//
// A device stays in Updating when the worker reports a failure; the state
// never retries.
package state
