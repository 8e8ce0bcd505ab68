package capi

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// lastErrors is the per-goroutine last-error slot spec.md §5 describes:
// a failing call deposits its error before returning, and the slot is
// not cleared until a subsequent call reads (and clears) it. Go has no
// true thread-local storage, so goroutine id — parsed out of
// runtime.Stack's own header line, the standard approximation — stands
// in for the "thread" spec.md §5 has in mind; this is correct as long
// as a caller completes one synchronous call per goroutine before
// making the next, which spec.md §5's "single-threaded per
// Compilation" model already guarantees.
var (
	lastErrorsMu sync.Mutex
	lastErrors   = map[uint64]error{}
)

// SetLastError deposits err into the calling goroutine's slot.
// Deposited after every failing call, per spec.md §5; a successful
// call does not clear a previous goroutine's deposit left over from
// one it never consumed, matching the "not cleared until consumed"
// rule.
func SetLastError(err error) {
	id := goroutineID()
	lastErrorsMu.Lock()
	defer lastErrorsMu.Unlock()
	lastErrors[id] = err
}

// LastError returns, and clears, the calling goroutine's last deposited
// error (nil if none).
func LastError() error {
	id := goroutineID()
	lastErrorsMu.Lock()
	defer lastErrorsMu.Unlock()
	err := lastErrors[id]
	delete(lastErrors, id)
	return err
}

// goroutineID parses the current goroutine's id out of its own stack
// trace header ("goroutine 123 [running]:..."), the conventional way to
// approximate TLS in Go without cgo or an unsafe g pointer read.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.Fields(buf[:n])
	if len(field) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(field[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
