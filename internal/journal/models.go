package journal

import "time"

// Outcome of a journaled update.
const (
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"
)

// Entry is one row of the update journal.
type Entry struct {
	ID        int64     `json:"id" example:"1" doc:"Journal entry ID"`
	Device    string    `json:"device" example:"System Firmware" doc:"Device name"`
	Backend   string    `json:"backend" example:"system76" doc:"Backend that installed the firmware"`
	From      string    `json:"from" example:"2022-11-30" doc:"Version before the update"`
	To        string    `json:"to" example:"2023-02-14" doc:"Version after the update"`
	System    bool      `json:"system" example:"true" doc:"Whether a reboot was requested"`
	Outcome   string    `json:"outcome" example:"updated" doc:"updated or failed"`
	Message   string    `json:"message,omitempty" doc:"Worker failure message"`
	CreatedAt time.Time `json:"createdAt" doc:"When the outcome was recorded"`
}
