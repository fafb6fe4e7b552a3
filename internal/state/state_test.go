package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firmware-manager/internal/component"
	"firmware-manager/internal/entity"
	"firmware-manager/internal/firmware"
	"firmware-manager/internal/view"
)

func TestDiscovery_Fwupd(t *testing.T) {
	tests := []struct {
		name        string
		ev          GenericDeviceFound
		system      bool
		latest      bool
		payload     bool
		upgradeable bool
	}{
		{name: "upgradeable", ev: fwupdFound("1.1", "1.3", true, false), latest: true, payload: true, upgradeable: true},
		{name: "needs reboot", ev: fwupdFound("1.1", "1.3", true, true), system: true, latest: true, payload: true, upgradeable: true},
		{name: "latest but not upgradeable", ev: fwupdFound("1.3", "1.3", false, false), payload: true},
		{name: "no latest", ev: fwupdFound("1.3", "", false, false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(Options{})
			h.Handle(tt.ev)

			e := h.only()
			assert.Equal(t, tt.system, h.IsSystem(e))
			assert.Equal(t, tt.system, h.view.widgets[e].system)
			assert.Equal(t, tt.upgradeable, h.view.widgets[e].upgradeable)

			latest, ok := h.Latest(e)
			assert.Equal(t, tt.latest, ok)
			if ok {
				assert.Equal(t, "1.3", latest)
			}

			payload, ok := h.components.Payload.Get(e)
			assert.Equal(t, tt.payload, ok)
			if ok {
				assert.Equal(t, firmware.KindFwupd, payload.Kind())
			}
		})
	}
}

func TestDiscovery_System76(t *testing.T) {
	downloaded := &firmware.System76Payload{Digest: "abc"}

	t.Run("update downloaded", func(t *testing.T) {
		h := newHarness(Options{})
		h.Handle(VendorSystemFound{
			Info:       firmware.Info{Name: "System Firmware", Current: "2022-11-30", Latest: "2023-02-14"},
			Downloaded: downloaded,
		})

		e := h.only()
		assert.True(t, h.IsSystem(e))
		assert.True(t, h.view.widgets[e].upgradeable)
		latest, ok := h.Latest(e)
		require.True(t, ok)
		assert.Equal(t, "2023-02-14", latest)
		payload, ok := h.components.Payload.Get(e)
		require.True(t, ok)
		assert.Same(t, downloaded, payload)
	})

	t.Run("already current", func(t *testing.T) {
		h := newHarness(Options{})
		h.Handle(VendorSystemFound{
			Info:       firmware.Info{Name: "System Firmware", Current: "2023-02-14", Latest: "2023-02-14"},
			Downloaded: downloaded,
		})

		e := h.only()
		assert.True(t, h.IsSystem(e))
		assert.False(t, h.view.widgets[e].upgradeable)
		_, ok := h.Latest(e)
		assert.False(t, ok)
		assert.True(t, h.components.Payload.Has(e))
	})

	t.Run("not downloaded", func(t *testing.T) {
		h := newHarness(Options{})
		h.Handle(VendorSystemFound{
			Info: firmware.Info{Name: "System Firmware", Current: "2022-11-30", Latest: "2023-02-14"},
		})

		e := h.only()
		assert.True(t, h.view.widgets[e].upgradeable)
		assert.False(t, h.components.Payload.Has(e))
	})

	t.Run("no latest", func(t *testing.T) {
		h := newHarness(Options{})
		h.Handle(VendorSystemFound{Info: firmware.Info{Name: "System Firmware", Current: "2022-11-30"}})

		e := h.only()
		assert.True(t, h.IsSystem(e))
		assert.False(t, h.components.Latest.Has(e))
		assert.False(t, h.components.Payload.Has(e))
	})
}

func TestDiscovery_Thelio(t *testing.T) {
	tests := []struct {
		name        string
		ev          VendorControllerFound
		payload     bool
		upgradeable bool
	}{
		{
			name:        "update available",
			ev:          VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"},
			payload:     true,
			upgradeable: true,
		},
		{
			name:    "current",
			ev:      VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.5", Latest: "1.5"}, Digest: "d1"},
			payload: true,
		},
		{
			name: "no digest",
			ev:   VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(Options{})
			h.Handle(tt.ev)

			e := h.only()
			assert.False(t, h.IsSystem(e))
			assert.Equal(t, tt.upgradeable, h.view.widgets[e].upgradeable)
			assert.Equal(t, tt.upgradeable, h.components.Latest.Has(e))
			assert.Equal(t, tt.payload, h.components.Payload.Has(e))
		})
	}
}

func TestDiscovery_EntitiesAreUnique(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4"}})

	es := h.components.Entities()
	require.Len(t, es, 3)
	seen := map[entity.Entity]bool{}
	for _, e := range es {
		assert.NotZero(t, e)
		assert.False(t, seen[e])
		seen[e] = true
	}
}

func TestDiscovery_UnregisteredBackendIsDropped(t *testing.T) {
	h := newHarness(Options{Backends: []Backend{BackendSystem76}})
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	assert.Zero(t, h.components.Display.Len())

	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4"}})
	assert.Equal(t, 1, h.components.Display.Len())
}

func TestReveal_GeneratesOnceAndToggles(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	e := h.only()
	r := &h.view.widgets[e].revealer

	h.Handle(Reveal{Entity: e})
	assert.True(t, r.shown)
	require.NotNil(t, r.content)
	assert.Equal(t, []firmware.Entry{
		{Version: "1.3", Description: "third"},
		{Version: "1.2", Description: "second"},
		{Version: "1.1", Description: "first"},
	}, r.content.Entries)

	h.Handle(Reveal{Entity: e})
	h.Handle(Reveal{Entity: e})
	assert.True(t, r.shown)
	assert.Equal(t, 1, r.contents)

	assert.Equal(t, []view.Event{
		view.Revealed{Entity: e, Shown: true},
		view.Revealed{Entity: e, Shown: false},
		view.Revealed{Entity: e, Shown: true},
	}, h.ui.events)
}

func TestReveal_ContentByPayload(t *testing.T) {
	t.Run("system76 keeps stored order", func(t *testing.T) {
		h := newHarness(Options{})
		h.Handle(VendorSystemFound{
			Info: firmware.Info{Name: "System Firmware", Current: "a", Latest: "c"},
			Downloaded: &firmware.System76Payload{
				Digest: "d",
				Changelog: firmware.Changelog{Versions: []firmware.ChangelogVersion{
					{BIOS: "c", Description: "newest"},
					{BIOS: "b"},
				}},
			},
		})
		e := h.only()
		h.Handle(Reveal{Entity: e})

		c := h.view.widgets[e].revealer.content
		require.NotNil(t, c)
		assert.False(t, c.None)
		assert.Equal(t, []firmware.Entry{
			{Version: "c", Description: "newest"},
			{Version: "b", Description: "N/A"},
		}, c.Entries)
	})

	t.Run("thelio gets placeholder", func(t *testing.T) {
		h := newHarness(Options{})
		h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d"})
		e := h.only()
		h.Handle(Reveal{Entity: e})

		c := h.view.widgets[e].revealer.content
		require.NotNil(t, c)
		assert.True(t, c.None)
	})
}

func TestReveal_UnknownEntity(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(Reveal{Entity: 42})
	assert.Empty(t, h.ui.events)
}

func TestUpdate_WithoutLatestIsNoop(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(fwupdFound("1.3", "1.3", false, false))
	e := h.only()

	h.Handle(UpdateRequested{Entity: e})
	assert.Empty(t, h.ui.events)
	assert.Empty(t, h.worker.requests)
	assert.False(t, h.view.widgets[e].waiting)
}

func TestUpdate_FwupdConfirmation(t *testing.T) {
	h := newHarness(Options{OnBattery: true})
	h.Handle(fwupdFound("1.1", "1.3", true, true))
	e := h.only()

	h.Handle(UpdateRequested{Entity: e})
	require.Len(t, h.ui.events, 1)
	opened, ok := h.ui.events[0].(view.ConfirmationOpened)
	require.True(t, ok)
	c := opened.Confirmation
	assert.Equal(t, e, c.Entity)
	assert.Equal(t, firmware.KindFwupd, c.Kind)
	assert.Equal(t, "1.3", c.Latest)
	assert.True(t, c.OnBattery)
	assert.True(t, c.NeedsReboot)
	assert.Equal(t, "ec0", c.Device.ID)
	assert.Len(t, c.Releases, 3)
	assert.Empty(t, h.worker.requests)

	phase, _ := h.Phase(e)
	assert.Equal(t, component.PhaseConfirming, phase)

	// a second request while the dialog is open is ignored
	h.Handle(UpdateRequested{Entity: e})
	assert.Len(t, h.ui.events, 1)

	h.Handle(UpdateConfirmed{Entity: e})
	require.Len(t, h.worker.requests, 1)
	req, ok := h.worker.requests[0].(FwupdRequest)
	require.True(t, ok)
	assert.Equal(t, e, req.Entity)
	assert.Equal(t, "1.3", req.Release.Version)
	assert.True(t, h.view.widgets[e].waiting)
	assert.Equal(t, view.ProgressActivate{Widget: h.view.widgets[e]}, h.ui.events[1])

	phase, _ = h.Phase(e)
	assert.Equal(t, component.PhaseUpdating, phase)
}

func TestUpdate_FwupdConfirmationReleases(t *testing.T) {
	tests := []struct {
		name     string
		releases []string
		want     []string
		flashed  string
	}{
		{name: "single release", releases: []string{"2.0.1"}, want: []string{"2.0.1"}, flashed: "2.0.1"},
		{name: "unordered", releases: []string{"2.0.1", "1.9.0", "2.0.0"}, want: []string{"1.9.0", "2.0.0", "2.0.1"}, flashed: "2.0.1"},
		{name: "mixed schemes", releases: []string{"1.2.3.1", "1.2.3-rc1", "1.2.3"}, want: []string{"1.2.3-rc1", "1.2.3", "1.2.3.1"}, flashed: "1.2.3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]firmware.Release, 0, len(tt.releases))
			for _, v := range tt.releases {
				in = append(in, firmware.Release{Version: v})
			}
			h := newHarness(Options{})
			h.Handle(GenericDeviceFound{
				Info:        firmware.Info{Name: "Embedded Controller", Current: "1.0", Latest: tt.flashed},
				Device:      firmware.Device{ID: "ec0"},
				Upgradeable: true,
				Releases:    firmware.NewReleases(in...),
			})
			e := h.only()

			h.Handle(UpdateRequested{Entity: e})
			require.Len(t, h.ui.events, 1)
			c := h.ui.events[0].(view.ConfirmationOpened).Confirmation

			var got []string
			for _, r := range c.Releases {
				got = append(got, r.Version)
			}
			assert.Equal(t, tt.want, got)

			h.Handle(UpdateConfirmed{Entity: e})
			require.Len(t, h.worker.requests, 1)
			assert.Equal(t, tt.flashed, h.worker.requests[0].(FwupdRequest).Release.Version)
		})
	}
}

func TestUpdate_System76Confirmation(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorSystemFound{
		Info:       firmware.Info{Name: "System Firmware", Current: "a", Latest: "b"},
		Downloaded: &firmware.System76Payload{Digest: "digest"},
	})
	e := h.only()

	h.Handle(UpdateRequested{Entity: e})
	require.Len(t, h.ui.events, 1)
	c := h.ui.events[0].(view.ConfirmationOpened).Confirmation
	assert.Equal(t, firmware.KindSystem76, c.Kind)
	assert.Equal(t, firmware.Digest("digest"), c.Digest)
	assert.True(t, c.NeedsReboot)

	h.Handle(UpdateConfirmed{Entity: e})
	require.Len(t, h.worker.requests, 1)
	assert.Equal(t, System76Request{Entity: e, Digest: "digest", Latest: "b"}, h.worker.requests[0])
}

func TestUpdate_CancelReturnsToIdle(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	e := h.only()

	h.Handle(UpdateRequested{Entity: e})
	h.Handle(UpdateCancelled{Entity: e})

	phase, _ := h.Phase(e)
	assert.Equal(t, component.PhaseIdle, phase)
	assert.Empty(t, h.worker.requests)
	assert.False(t, h.view.widgets[e].waiting)

	// confirming after cancel has nothing to accept
	h.Handle(UpdateConfirmed{Entity: e})
	assert.Empty(t, h.worker.requests)

	// the device can be offered again
	h.Handle(UpdateRequested{Entity: e})
	assert.Equal(t, 2, h.ui.count(func(ev view.Event) bool {
		_, ok := ev.(view.ConfirmationOpened)
		return ok
	}))
}

func TestUpdate_ThelioSkipsConfirmation(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})
	e := h.only()

	h.Handle(UpdateRequested{Entity: e})
	assert.True(t, h.view.widgets[e].waiting)
	assert.Equal(t, []view.Event{view.ProgressActivate{Widget: h.view.widgets[e]}}, h.ui.events)
	assert.Equal(t, []Request{ThelioRequest{Entity: e, Digest: "d1"}}, h.worker.requests)
}

func TestDeviceUpdated_OrderAndHide(t *testing.T) {
	h := newHarness(Options{HideDelay: 250 * time.Millisecond})
	h.Handle(fwupdFound("1.1", "1.3", true, true))
	e := h.only()
	h.Handle(UpdateRequested{Entity: e})
	h.Handle(UpdateConfirmed{Entity: e})
	h.view.calls = nil

	h.Handle(UpdateCompleted{Entity: e, Version: "1.3"})

	assert.Equal(t, []string{
		fmt.Sprintf("progress %v 1.00", e),
		fmt.Sprintf("label %v 1.3", e),
		"emit view.ProgressDeactivate",
		"reboot",
	}, h.view.calls)
	assert.Equal(t, 1, h.reboot.n)
	assert.False(t, h.components.Latest.Has(e))
	phase, _ := h.Phase(e)
	assert.Equal(t, component.PhaseCompleted, phase)

	require.Len(t, h.observer.updated, 1)
	u := h.observer.updated[0]
	assert.Equal(t, "1.1", u.From)
	assert.Equal(t, "1.3", u.To)
	assert.Equal(t, firmware.KindFwupd, u.Backend)
	assert.True(t, u.System)

	// nothing hidden before the delay elapsed
	hideRows := func(ev view.Event) bool { return ev == view.HideRow{Entity: e} }
	assert.Zero(t, h.ui.count(hideRows))

	require.Len(t, h.timers, 1)
	assert.Equal(t, 250*time.Millisecond, h.timers[0].delay)
	h.timers[0].fire()
	assert.Equal(t, 1, h.ui.count(hideRows))

	h.timers[0].fire()
	assert.Equal(t, 1, h.ui.count(hideRows))
}

func TestDeviceUpdated_NonSystemDoesNotReboot(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})
	e := h.only()
	h.Handle(UpdateRequested{Entity: e})
	h.Handle(UpdateCompleted{Entity: e, Version: "1.5"})

	assert.Zero(t, h.reboot.n)
	require.Len(t, h.timers, 1)
	assert.Equal(t, DefaultHideDelay, h.timers[0].delay)
	assert.Equal(t, "1.5", h.view.widgets[e].label)
}

func TestDeviceUpdated_UnknownEntity(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(UpdateCompleted{Entity: 9, Version: "1.0"})
	assert.Empty(t, h.ui.events)
	assert.Empty(t, h.timers)
}

func TestHideRow_StaleEntityIsSuppressed(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})
	e := h.only()
	h.Handle(UpdateRequested{Entity: e})
	h.Handle(UpdateCompleted{Entity: e, Version: "1.5"})

	h.Handle(RescanRequested{})
	require.Len(t, h.timers, 1)
	h.timers[0].fire()

	assert.Zero(t, h.ui.count(func(ev view.Event) bool { return ev == view.HideRow{Entity: e} }))
}

func TestHideRow_AlreadyHiddenByPresentation(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})
	e := h.only()
	h.Handle(UpdateRequested{Entity: e})
	h.Handle(UpdateCompleted{Entity: e, Version: "1.5"})
	h.Handle(RowVisibility{Entity: e, Shown: false})

	h.timers[0].fire()
	assert.Zero(t, h.ui.count(func(ev view.Event) bool { return ev == view.HideRow{Entity: e} }))
}

func TestDownloadProgress(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})
	e := h.only()

	h.Handle(DownloadProgress{Entity: e, Bytes: 10})
	_, ok := h.Progress(e)
	assert.False(t, ok)

	h.Handle(DownloadBegin{Entity: e, Total: 200})
	h.Handle(DownloadProgress{Entity: e, Bytes: 50})
	h.Handle(DownloadProgress{Entity: e, Bytes: 50})

	p, ok := h.Progress(e)
	require.True(t, ok)
	assert.Equal(t, component.Progress{Current: 100, Total: 200}, p)
	assert.InDelta(t, 0.5, h.view.widgets[e].progress, 1e-9)
	assert.Len(t, h.observer.progress, 2)

	h.Handle(DownloadProgress{Entity: e, Bytes: 500})
	p, _ = h.Progress(e)
	assert.Equal(t, uint64(200), p.Current)

	h.Handle(DownloadComplete{Entity: e})
	_, ok = h.Progress(e)
	assert.False(t, ok)
}

func TestWorkerError_ReportedWithoutRetry(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})
	e := h.only()
	h.Handle(UpdateRequested{Entity: e})

	h.Handle(WorkerError{Entity: e, Message: "flash failed"})

	assert.Contains(t, h.ui.events, view.ErrorReported{Entity: e, Message: "flash failed"})
	assert.Len(t, h.worker.requests, 1)
	phase, _ := h.Phase(e)
	assert.Equal(t, component.PhaseUpdating, phase)
	require.Len(t, h.observer.failed, 1)
	assert.Equal(t, "Thelio Io", h.observer.failed[0].Name)
}

func TestScanLifecycle(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(ScanStarted{})
	h.Handle(ScanCompleted{})

	assert.Equal(t, []view.Event{
		view.ScanStateChanged{Scanning: true},
		view.ScanStateChanged{Scanning: false},
	}, h.ui.events)
	assert.Equal(t, 1, h.view.empty)

	h.Handle(fwupdFound("1.1", "1.3", true, false))
	h.Handle(ScanCompleted{})
	assert.Equal(t, 1, h.view.empty)
}

func TestRescan(t *testing.T) {
	h := newHarness(Options{})
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	h.Handle(VendorControllerFound{Info: firmware.Info{Name: "Thelio Io", Current: "1.4", Latest: "1.5"}, Digest: "d1"})

	var thelio entity.Entity
	for _, e := range h.components.Entities() {
		if h.components.Payload.Has(e) && firmware.KindOf(mustPayload(h, e)) == firmware.KindThelio {
			thelio = e
		}
	}
	h.Handle(UpdateRequested{Entity: thelio})

	h.Handle(RescanRequested{})
	assert.Equal(t, 2, h.components.Display.Len(), "rescan refused while updating")

	h.Handle(UpdateCompleted{Entity: thelio, Version: "1.5"})
	h.Handle(RescanRequested{})
	assert.Zero(t, h.components.Display.Len())
	assert.Zero(t, h.components.Latest.Len())
	assert.Contains(t, h.view.calls, "clear")
	assert.Equal(t, ScanRequest{}, h.worker.requests[len(h.worker.requests)-1])

	// entities are never recycled
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	assert.Greater(t, uint64(h.only()), uint64(thelio))
}

func mustPayload(h *harness, e entity.Entity) firmware.Payload {
	p, _ := h.components.Payload.Get(e)
	return p
}

func TestSinkErrorsAreSwallowed(t *testing.T) {
	h := newHarness(Options{})
	h.ui.err = ErrSinkClosed
	h.Handle(fwupdFound("1.1", "1.3", true, false))
	e := h.only()

	assert.NotPanics(t, func() {
		h.Handle(Reveal{Entity: e})
		h.Handle(UpdateRequested{Entity: e})
	})
	assert.True(t, h.view.widgets[e].revealer.shown)
	phase, _ := h.Phase(e)
	assert.Equal(t, component.PhaseConfirming, phase)
}
