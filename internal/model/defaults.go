package model

import "time"

// Shared defaults used by the CLI and the packages it wires together.
const (
	DefaultLayout       = "total_waits"
	DefaultMatchMode    = "prefix"
	DefaultSectionMode  = "sticky"
	DefaultOutputMode   = "combined"
	DefaultLoadWorkers  = 4
	DefaultQueryTimeout = 30 * time.Second
)

// DefaultWaitEvents is used when no event list is configured.
var DefaultWaitEvents = []string{
	"db file sequential read",
	"log file parallel write",
}
