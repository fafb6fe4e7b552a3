package state

import (
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
)

// Event is anything processed by the state loop: discovery and progress
// reports from the worker, actions raised by the presentation layer, and
// internal timer expiries.
type Event interface {
	isEvent()
}

// Backend names a family of discovery handlers that can be switched on or
// off by configuration.
type Backend string

const (
	BackendFwupd    Backend = "fwupd"
	BackendSystem76 Backend = "system76"
)

// Discovery is implemented by events that announce a new device.
type Discovery interface {
	Event
	Backend() Backend
}

// GenericDeviceFound is reported for a device managed by the fwupd daemon.
type GenericDeviceFound struct {
	Info        firmware.Info
	Device      firmware.Device
	Upgradeable bool
	Releases    firmware.Releases
}

// VendorSystemFound is reported for System76 system firmware. Downloaded
// is nil when the firmware bundle could not be fetched.
type VendorSystemFound struct {
	Info       firmware.Info
	Downloaded *firmware.System76Payload
}

// VendorControllerFound is reported for a Thelio I/O board. Digest is empty
// when no firmware bundle is known.
type VendorControllerFound struct {
	Info   firmware.Info
	Digest firmware.Digest
}

// UpdateCompleted is reported when the worker finished flashing a device.
type UpdateCompleted struct {
	Entity  entity.Entity
	Version string
}

// DownloadBegin starts a download of total bytes for an entity.
type DownloadBegin struct {
	Entity entity.Entity
	Total  uint64
}

// DownloadProgress adds n freshly downloaded bytes.
type DownloadProgress struct {
	Entity entity.Entity
	Bytes  uint64
}

// DownloadComplete ends the download of an entity.
type DownloadComplete struct {
	Entity entity.Entity
}

// WorkerError carries a failure reported by the worker. Entity is zero for
// failures not tied to a device.
type WorkerError struct {
	Entity  entity.Entity
	Message string
}

// ScanStarted and ScanCompleted bracket a device scan by the worker.
type (
	ScanStarted   struct{}
	ScanCompleted struct{}
)

// Reveal toggles the changelog of a row.
type Reveal struct {
	Entity entity.Entity
}

// UpdateRequested is raised when the upgrade affordance of a row is used.
type UpdateRequested struct {
	Entity entity.Entity
}

// UpdateConfirmed accepts the confirmation opened for an entity.
type UpdateConfirmed struct {
	Entity entity.Entity
}

// UpdateCancelled dismisses the confirmation opened for an entity.
type UpdateCancelled struct {
	Entity entity.Entity
}

// RescanRequested asks for the device list to be rebuilt.
type RescanRequested struct{}

// RowVisibility reports that the presentation layer showed or hid a row on
// its own.
type RowVisibility struct {
	Entity entity.Entity
	Shown  bool
}

// hideRowDue fires once the post-update delay of an entity elapsed.
type hideRowDue struct {
	Entity entity.Entity
}

func (GenericDeviceFound) isEvent()    {}
func (VendorSystemFound) isEvent()     {}
func (VendorControllerFound) isEvent() {}
func (UpdateCompleted) isEvent()       {}
func (DownloadBegin) isEvent()         {}
func (DownloadProgress) isEvent()      {}
func (DownloadComplete) isEvent()      {}
func (WorkerError) isEvent()           {}
func (ScanStarted) isEvent()           {}
func (ScanCompleted) isEvent()         {}
func (Reveal) isEvent()                {}
func (UpdateRequested) isEvent()       {}
func (UpdateConfirmed) isEvent()       {}
func (UpdateCancelled) isEvent()       {}
func (RescanRequested) isEvent()       {}
func (RowVisibility) isEvent()         {}
func (hideRowDue) isEvent()            {}

func (GenericDeviceFound) Backend() Backend    { return BackendFwupd }
func (VendorSystemFound) Backend() Backend     { return BackendSystem76 }
func (VendorControllerFound) Backend() Backend { return BackendSystem76 }

// Request is sent from the state core to the worker.
type Request interface {
	isRequest()
}

// FwupdRequest asks the worker to install a release through fwupd.
type FwupdRequest struct {
	Entity  entity.Entity
	Device  firmware.Device
	Release firmware.Release
}

// System76Request asks the worker to schedule System76 system firmware.
type System76Request struct {
	Entity entity.Entity
	Digest firmware.Digest
	Latest string
}

// ThelioRequest asks the worker to flash a Thelio I/O board.
type ThelioRequest struct {
	Entity entity.Entity
	Digest firmware.Digest
}

// ScanRequest asks the worker to rescan every backend.
type ScanRequest struct{}

func (FwupdRequest) isRequest()    {}
func (System76Request) isRequest() {}
func (ThelioRequest) isRequest()   {}
func (ScanRequest) isRequest()     {}
