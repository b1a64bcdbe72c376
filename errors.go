/*
Copyright © 2026 Ladderbox
*/

package main

import (
	"errors"
	"log"
	"time"
)

// The two errors that cross the wire; their text is the client-facing
// error message verbatim.
var (
	ErrSessionNotFound = errors.New("Session not found")
	ErrSessionFull     = errors.New("Session is full")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}
