package engine

import (
	"os"
)

// jobLogger fans one job's log lines out to the caller's sink and to the
// channel's append-only log file. File write errors are swallowed so a full
// disk cannot fail an otherwise healthy job.
type jobLogger struct {
	sinks Sinks
	file  *os.File
}

func newJobLogger(sinks Sinks, path string) *jobLogger {
	jl := &jobLogger{sinks: sinks}
	if path != "" {
		if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			jl.file = f
		}
	}
	return jl
}

func (jl *jobLogger) Log(text string) {
	jl.sinks.Log(text)
	if jl.file != nil {
		_, _ = jl.file.WriteString(text + "\n")
	}
}

func (jl *jobLogger) Close() {
	if jl.file != nil {
		_ = jl.file.Close()
	}
}
