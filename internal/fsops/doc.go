// Package fsops performs the whole-file operations behind the state files:
// JSON read, atomic replace, and idempotent removal.
package fsops
