package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/jrick/logrotate/rotator"
	"github.com/pkg/errors"
)

// Call-site annotations. NewBackend reads them from the comma separated
// LOGFLAGS environment variable ("longfile", "shortfile"); the short form
// wins when both are set.
const (
	LogFlagLongFile uint32 = 1 << iota
	LogFlagShortFile
)

func flagsFromEnv() uint32 {
	var flags uint32
	for _, name := range strings.Split(os.Getenv("LOGFLAGS"), ",") {
		switch strings.TrimSpace(name) {
		case "longfile":
			flags |= LogFlagLongFile
		case "shortfile":
			flags |= LogFlagShortFile
		}
	}
	return flags
}

const (
	normalLogSize  = 512
	entryQueueSize = 256

	rotateThresholdKB = 10 * 1000
	rotateMaxRolls    = 4
)

type backendState int

const (
	stateIdle backendState = iota
	stateRunning
	stateClosed
)

// sink is one destination of the backend together with the lowest level it
// accepts.
type sink struct {
	w        io.WriteCloser
	minLevel Level
}

// Backend serializes the entries of all its loggers through one goroutine
// that fans them out to the sinks. Sinks are attached before Run. Entries
// written before Run or after Close are dropped.
type Backend struct {
	flag uint32

	// mu guards state and is read-held for every send on entries, so Close
	// never closes the channel under a pending send.
	mu      sync.RWMutex
	state   backendState
	sinks   []sink
	entries chan logEntry
	done    chan struct{}
}

// NewBackendWithFlags creates a backend with explicit call-site flags,
// ignoring LOGFLAGS.
func NewBackendWithFlags(flags uint32) *Backend {
	return &Backend{
		flag:    flags,
		entries: make(chan logEntry, entryQueueSize),
		done:    make(chan struct{}),
	}
}

// NewBackend creates a backend configured from LOGFLAGS.
func NewBackend() *Backend {
	return NewBackendWithFlags(flagsFromEnv())
}

func (b *Backend) addSink(w io.WriteCloser, minLevel Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateIdle {
		return errors.New("log sinks must be added before the backend runs")
	}
	b.sinks = append(b.sinks, sink{w: w, minLevel: minLevel})
	return nil
}

// AddLogWriter sends every entry at minLevel or above to w. The backend
// closes w on Close.
func (b *Backend) AddLogWriter(w io.WriteCloser, minLevel Level) error {
	return b.addSink(w, minLevel)
}

// AddLogFile appends every entry at minLevel or above to logFile, creating
// its directory when missing. The file rolls over every 10 MB and the four
// most recent rolls are kept.
func (b *Backend) AddLogFile(logFile string, minLevel Level) error {
	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return errors.Wrap(err, "failed to create log directory")
		}
	}
	r, err := rotator.New(logFile, rotateThresholdKB, false, rotateMaxRolls)
	if err != nil {
		return errors.Wrap(err, "failed to create file rotator")
	}
	if err := b.addSink(r, minLevel); err != nil {
		_ = r.Close()
		return err
	}
	return nil
}

// Run starts delivering entries. A backend runs at most once.
func (b *Backend) Run() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != stateIdle {
		return errors.New("the logger was already started")
	}
	b.state = stateRunning
	go b.deliver()
	return nil
}

func (b *Backend) deliver() {
	defer close(b.done)
	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Fatal error in logger.Backend goroutine: %+v\n", err)
			_, _ = fmt.Fprintf(os.Stderr, "Goroutine stacktrace: %s\n", debug.Stack())
			// Keep writers from blocking on a full queue until Close.
			for range b.entries {
			}
		}
	}()

	for entry := range b.entries {
		for _, s := range b.sinks {
			if entry.level >= s.minLevel {
				_, _ = s.w.Write(entry.log)
			}
		}
	}
}

// IsRunning reports whether Run was called and Close was not.
func (b *Backend) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == stateRunning
}

func (b *Backend) write(entry logEntry) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != stateRunning {
		return
	}
	b.entries <- entry
}

// Close waits for the queued entries to be written and closes every sink.
// Loggers of a closed backend discard their entries.
func (b *Backend) Close() {
	b.mu.Lock()
	if b.state == stateClosed {
		b.mu.Unlock()
		return
	}
	wasRunning := b.state == stateRunning
	b.state = stateClosed
	close(b.entries)
	b.mu.Unlock()

	if wasRunning {
		<-b.done
	}
	for _, s := range b.sinks {
		_ = s.w.Close()
	}
}

// Logger returns a logger at LevelInfo that tags its entries with
// subsystemTag.
func (b *Backend) Logger(subsystemTag string) *Logger {
	return &Logger{lvl: uint32(LevelInfo), tag: subsystemTag, b: b}
}

// nopCloser wraps a writer the backend must not close, such as os.Stdout.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
