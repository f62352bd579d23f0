// Package daemon runs the background scheduling loop: every tick it loads
// the shared topics file, asks the power gate whether checks may run, fans
// out bounded AI checks for due topics, and reconciles outcomes back into
// the file before notifying.
//
// The daemon holds a flock-based instance lock so only one copy runs per
// machine, and implements the IPC Controller interface used by the CLI for
// status, forced checks, and shutdown.
package daemon
