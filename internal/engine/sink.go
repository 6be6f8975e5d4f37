package engine

import (
	"sync"
)

// LogFunc receives one log line from a worker.
type LogFunc func(text string)

// ProgressFunc receives a status message plus processed/total counters.
type ProgressFunc func(message string, processed, total int)

// Sinks bundles the caller's log and progress callbacks. Either may be nil.
// Callbacks are invoked from worker goroutines, so they must accept
// concurrent invocation; wrap with Serialized when they do not.
type Sinks struct {
	OnLog      LogFunc
	OnProgress ProgressFunc
}

// Log delivers a log line if a log sink is set.
func (s Sinks) Log(text string) {
	if s.OnLog != nil {
		s.OnLog(text)
	}
}

// Progress delivers a progress update if a progress sink is set.
func (s Sinks) Progress(message string, processed, total int) {
	if s.OnProgress != nil {
		s.OnProgress(message, processed, total)
	}
}

// Serialized returns sinks whose callbacks are delivered under a shared
// mutex, so a consumer that is not safe for concurrent invocation still sees
// one call at a time.
func (s Sinks) Serialized() Sinks {
	mu := &sync.Mutex{}
	out := Sinks{}
	if s.OnLog != nil {
		logFn := s.OnLog
		out.OnLog = func(text string) {
			mu.Lock()
			defer mu.Unlock()
			logFn(text)
		}
	}
	if s.OnProgress != nil {
		progressFn := s.OnProgress
		out.OnProgress = func(message string, processed, total int) {
			mu.Lock()
			defer mu.Unlock()
			progressFn(message, processed, total)
		}
	}
	return out
}
