package monitor

import "errors"

var (
	ErrPersist = errors.New("persist check")
	ErrNotify  = errors.New("notify")
	ErrJournal = errors.New("write log entry")
	ErrRotate  = errors.New("rotate log")

	errNotRunning = errors.New("engine not running")
)
