package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/state"
)

// ErrUnknownType is returned for envelopes of an unknown type.
var ErrUnknownType = errors.New("bridge: unknown message type")

// Envelope is the JSON frame exchanged with the worker.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Worker event types.
const (
	TypeGenericDevice    = "device.fwupd"
	TypeVendorSystem     = "device.system76"
	TypeVendorController = "device.thelio"
	TypeUpdated          = "update.completed"
	TypeDownloadBegin    = "download.begin"
	TypeDownloadProgress = "download.progress"
	TypeDownloadComplete = "download.complete"
	TypeError            = "error"
	TypeScanStarted      = "scan.started"
	TypeScanCompleted    = "scan.completed"
)

// Request types.
const (
	TypeFwupdRequest    = "update.fwupd"
	TypeSystem76Request = "update.system76"
	TypeThelioRequest   = "update.thelio"
	TypeScanRequest     = "scan"
)

type genericDevice struct {
	Info        firmware.Info      `json:"info"`
	Device      firmware.Device    `json:"device"`
	Upgradeable bool               `json:"upgradeable"`
	Releases    []firmware.Release `json:"releases"`
}

type vendorSystem struct {
	Info      firmware.Info       `json:"info"`
	Digest    firmware.Digest     `json:"digest,omitempty"`
	Changelog *firmware.Changelog `json:"changelog,omitempty"`
}

type vendorController struct {
	Info   firmware.Info   `json:"info"`
	Digest firmware.Digest `json:"digest,omitempty"`
}

type entityRef struct {
	Entity entity.Entity `json:"entity"`
}

type updated struct {
	Entity  entity.Entity `json:"entity"`
	Version string        `json:"version"`
}

type download struct {
	Entity entity.Entity `json:"entity"`
	Total  uint64        `json:"total,omitempty"`
	Bytes  uint64        `json:"bytes,omitempty"`
}

type workerError struct {
	Entity  entity.Entity `json:"entity,omitempty"`
	Message string        `json:"message"`
}

type fwupdRequest struct {
	Entity  entity.Entity    `json:"entity"`
	Device  firmware.Device  `json:"device"`
	Release firmware.Release `json:"release"`
}

type system76Request struct {
	Entity entity.Entity   `json:"entity"`
	Digest firmware.Digest `json:"digest"`
	Latest string          `json:"latest"`
}

type thelioRequest struct {
	Entity entity.Entity   `json:"entity"`
	Digest firmware.Digest `json:"digest"`
}

// DecodeEvent parses a worker message into a state event.
func DecodeEvent(b []byte) (state.Event, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("bridge: decode envelope: %w", err)
	}

	switch env.Type {
	case TypeGenericDevice:
		var d genericDevice
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.GenericDeviceFound{
			Info:        d.Info,
			Device:      d.Device,
			Upgradeable: d.Upgradeable,
			Releases:    firmware.NewReleases(d.Releases...),
		}, nil
	case TypeVendorSystem:
		var d vendorSystem
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		ev := state.VendorSystemFound{Info: d.Info}
		if d.Digest != "" && d.Changelog != nil {
			ev.Downloaded = &firmware.System76Payload{Digest: d.Digest, Changelog: *d.Changelog}
		}
		return ev, nil
	case TypeVendorController:
		var d vendorController
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.VendorControllerFound{Info: d.Info, Digest: d.Digest}, nil
	case TypeUpdated:
		var d updated
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.UpdateCompleted{Entity: d.Entity, Version: d.Version}, nil
	case TypeDownloadBegin:
		var d download
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.DownloadBegin{Entity: d.Entity, Total: d.Total}, nil
	case TypeDownloadProgress:
		var d download
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.DownloadProgress{Entity: d.Entity, Bytes: d.Bytes}, nil
	case TypeDownloadComplete:
		var d entityRef
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.DownloadComplete{Entity: d.Entity}, nil
	case TypeError:
		var d workerError
		if err := unmarshal(env, &d); err != nil {
			return nil, err
		}
		return state.WorkerError{Entity: d.Entity, Message: d.Message}, nil
	case TypeScanStarted:
		return state.ScanStarted{}, nil
	case TypeScanCompleted:
		return state.ScanCompleted{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

// EncodeRequest frames a worker request.
func EncodeRequest(r state.Request) ([]byte, error) {
	var (
		typ  string
		data any
	)
	switch r := r.(type) {
	case state.FwupdRequest:
		typ, data = TypeFwupdRequest, fwupdRequest{Entity: r.Entity, Device: r.Device, Release: r.Release}
	case state.System76Request:
		typ, data = TypeSystem76Request, system76Request{Entity: r.Entity, Digest: r.Digest, Latest: r.Latest}
	case state.ThelioRequest:
		typ, data = TypeThelioRequest, thelioRequest{Entity: r.Entity, Digest: r.Digest}
	case state.ScanRequest:
		typ = TypeScanRequest
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, r)
	}

	env := Envelope{Type: typ}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("bridge: encode %s: %w", typ, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func unmarshal(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("bridge: %s without data", env.Type)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("bridge: decode %s: %w", env.Type, err)
	}
	return nil
}
