// Package dicomlog is the logging façade used by every package in this
// module, combining the teacher's direct v.io/x/lib/vlog calls with the
// sibling fork's level-gated dicomlog wrapper (msz-kp/go-dicom/dicomlog),
// plus an optional rotating file sink for long-running association
// handlers (the pattern jpfielding/dicos.go's CLI uses
// gopkg.in/natefinch/lumberjack.v2 for).
package dicomlog

import (
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
	"v.io/x/lib/vlog"
)

var level int32

// SetLevel sets log verbosity. The larger the value, the more verbose.
// Setting it to -1 disables Vprintf output; Errorf and Fatalf still log.
// Thread safe.
func SetLevel(l int) {
	atomic.StoreInt32(&level, int32(l))
}

// Level returns the current log level. Thread safe.
func Level() int {
	return int(atomic.LoadInt32(&level))
}

// Vprintf logs at verbosity l: "if l <= Level() { log }".
func Vprintf(l int, format string, args ...interface{}) {
	if Level() < 0 {
		return
	}
	if l <= Level() {
		vlog.VI(vlog.Level(l)).Infof(format, args...)
	}
}

// Errorf always logs, regardless of verbosity level.
func Errorf(format string, args ...interface{}) {
	vlog.Errorf(format, args...)
}

// Fatalf logs and terminates the process. Reserved for programmer-error
// conditions the teacher also treats as fatal (FindTag failures during
// dictionary initialization, for example) — never for a runtime condition
// a peer association can trigger.
func Fatalf(format string, args ...interface{}) {
	vlog.Fatalf(format, args...)
}

// EnableFileSink returns a size- and age-rotated file writer at path, for
// SCP processes that run unattended for long periods. It does not redirect
// this package's own log output; the returned writer is used only by
// whoever writes to it.
// Rotation parameters mirror sane defaults for a DIMSE listener: 100MB per
// file, 7 backups, 28 days retention, compressed.
func EnableFileSink(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     28,
		Compress:   true,
	}
}
