// Package logutil provides prefixed loggers that share one output. Logging is
// off until SetOutput or SetOutputFile is called.
package logutil

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	out     io.Writer = io.Discard
	loggers []*log.Logger
)

// GetLogger returns a logger with the given prefix that writes to the shared
// output.
func GetLogger(prefix string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := log.New(out, prefix, log.LstdFlags)
	loggers = append(loggers, l)
	return l
}

// SetOutput redirects every logger, including ones created earlier.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

// SetOutputFile opens fname for appending and redirects every logger to it.
// An empty name turns logging off. The returned file is nil in that case.
func SetOutputFile(fname string) (*os.File, error) {
	if fname == "" {
		SetOutput(io.Discard)
		return nil, nil
	}
	f, err := os.OpenFile(fname, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	SetOutput(f)
	return f, nil
}
