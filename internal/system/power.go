// Package system reads host power state and restarts the machine after
// system firmware was scheduled.
package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNoPowerSupply is returned when the power supply class is missing.
var ErrNoPowerSupply = errors.New("system: no power supply information")

// OnBattery reports whether the host currently runs from its battery. dir
// is the sysfs power supply class, normally /sys/class/power_supply.
//
// A host with an online AC adapter is never on battery. Otherwise it is on
// battery when any battery is discharging.
func OnBattery(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, ErrNoPowerSupply
		}
		return false, fmt.Errorf("system: read %s: %w", dir, err)
	}

	discharging := false
	for _, e := range entries {
		supply := filepath.Join(dir, e.Name())
		switch attr(supply, "type") {
		case "Mains", "USB":
			if attr(supply, "online") == "1" {
				return false, nil
			}
		case "Battery":
			if attr(supply, "status") == "Discharging" {
				discharging = true
			}
		}
	}
	return discharging, nil
}

// DetectOnBattery is OnBattery for startup use: failures are logged and
// read as "on AC".
func DetectOnBattery(dir string) bool {
	on, err := OnBattery(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Could not determine battery state, assuming AC power")
		return false
	}
	log.Info().Bool("on_battery", on).Msg("Power state detected")
	return on
}

func attr(supply, name string) string {
	b, err := os.ReadFile(filepath.Join(supply, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
