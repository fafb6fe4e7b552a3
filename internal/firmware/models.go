package firmware

// Kind identifies which backend shape a payload has.
type Kind int

const (
	KindNone Kind = iota
	KindFwupd
	KindSystem76
	KindThelio
)

func (k Kind) String() string {
	switch k {
	case KindFwupd:
		return "fwupd"
	case KindSystem76:
		return "system76"
	case KindThelio:
		return "thelio"
	default:
		return "none"
	}
}

// Info is the display metadata every backend reports for a device.
type Info struct {
	Name    string `json:"name" example:"System Firmware" doc:"Device name"`
	Current string `json:"current" example:"1.2.0" doc:"Installed firmware version"`
	Latest  string `json:"latest,omitempty" example:"1.3.0" doc:"Newest known firmware version"`
}

// HasLatest reports whether the backend knows about any newer firmware.
func (i Info) HasLatest() bool {
	return i.Latest != ""
}

// Device describes a device exposed by the fwupd daemon.
type Device struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Vendor      string `json:"vendor,omitempty"`
	Summary     string `json:"summary,omitempty"`
	NeedsReboot bool   `json:"needs_reboot"`
}

// Release is one firmware release offered by fwupd.
type Release struct {
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	URI         string `json:"uri,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	Size        uint64 `json:"size,omitempty"`
}

// Digest is the content digest of a vendor firmware bundle.
type Digest string

// ChangelogVersion is one entry of a vendor changelog.
type ChangelogVersion struct {
	BIOS        string `json:"bios"`
	Description string `json:"description,omitempty"`
}

// Changelog is the vendor changelog in the order the vendor published it.
type Changelog struct {
	Versions []ChangelogVersion `json:"versions"`
}

// Entry is one rendered changelog line pair.
type Entry struct {
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Entries returns the changelog in stored order. Versions without a
// description get "N/A".
func (c Changelog) Entries() []Entry {
	out := make([]Entry, 0, len(c.Versions))
	for _, v := range c.Versions {
		desc := v.Description
		if desc == "" {
			desc = "N/A"
		}
		out = append(out, Entry{Version: v.BIOS, Description: desc})
	}
	return out
}

// Payload is the backend-specific data recorded for an entity. Exactly one
// of FwupdPayload, System76Payload or ThelioPayload.
type Payload interface {
	Kind() Kind
}

// FwupdPayload is recorded for devices found through the fwupd daemon.
type FwupdPayload struct {
	Device   Device
	Releases Releases
}

func (*FwupdPayload) Kind() Kind { return KindFwupd }

// System76Payload is recorded for System76 system firmware.
type System76Payload struct {
	Digest    Digest
	Changelog Changelog
}

func (*System76Payload) Kind() Kind { return KindSystem76 }

// ThelioPayload is recorded for Thelio I/O boards. It carries no changelog.
type ThelioPayload struct {
	Digest Digest
}

func (*ThelioPayload) Kind() Kind { return KindThelio }

// KindOf returns the kind of p, or KindNone for a nil payload.
func KindOf(p Payload) Kind {
	if p == nil {
		return KindNone
	}
	return p.Kind()
}
