// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs shared by
// both ends. The server drives the daemon through the Controller interface so
// commands like status and forced checks reach the running process instead of
// operating on stale files.
package ipc
