// Package repository implements MySQL persistence for the hospital
// directory, beds, bed reservations and SOS reports.  Sentinel errors
// defined here let higher layers distinguish failure modes without
// inspecting driver errors.
package repository

import "errors"

// ErrBedTaken is returned by TryReserve when another caller already
// holds an active reservation on the requested bed.  The allocation
// engine treats it as "bed taken" and moves on to the next candidate;
// it is never surfaced to the API caller.
var ErrBedTaken = errors.New("bed already reserved")

// ErrNotFound is returned when a requested row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")
