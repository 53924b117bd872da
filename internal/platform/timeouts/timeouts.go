// Package timeouts defines shared timeout constants used across commands.
package timeouts

import "time"

// TelemetryShutdown limits how long a command waits for spans to flush on
// exit.
const TelemetryShutdown = 5 * time.Second

// JournalBusy is how long a journal connection waits on a locked database
// before failing.
const JournalBusy = 5 * time.Second
