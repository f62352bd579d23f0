// Package watchfile manages the shared topics file that the daemon and the
// CLI both read and modify.
//
// The file is TOML and lives at ~/.config/watchdog/topics.toml by default.
// Because two independent processes write it, every mutation goes through an
// advisory file lock (a .lock sidecar next to the topics file) and lands via
// an atomic rename, so readers never observe a half-written file.
package watchfile
