package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// logEntry is a formatted log line together with its level.
type logEntry struct {
	log   []byte
	level Level
}

// Logger is a subsystem logger. Messages below the logger's level are
// discarded, and so are all messages while its backend is not running, so
// library code can log unconditionally.
type Logger struct {
	lvl uint32 // atomic
	tag string
	b   *Backend
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.lvl))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.lvl, uint32(level))
}

// Backend returns the backend the logger writes to.
func (l *Logger) Backend() *Backend {
	return l.b
}

// Tracef formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.Writef(LevelTrace, format, args...)
}

// Debugf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Writef(LevelDebug, format, args...)
}

// Infof formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Writef(LevelInfo, format, args...)
}

// Warnf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Writef(LevelWarn, format, args...)
}

// Errorf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Writef(LevelError, format, args...)
}

// Criticalf formats message according to format specifier, prepends the prefix
// as necessary, and writes to log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Writef(LevelCritical, format, args...)
}

// Writef formats message according to format specifier and writes it to the
// backend at the given level.
func (l *Logger) Writef(logLevel Level, format string, args ...interface{}) {
	if logLevel < l.Level() || !l.b.IsRunning() {
		return
	}
	l.b.write(logEntry{l.format(logLevel, fmt.Sprintf(format, args...)), logLevel})
}

// format builds a log line of the form
// "2006-01-02 15:04:05.000 [LVL] TAG: message", with the call site before
// the tag when the backend flags ask for it.
func (l *Logger) format(level Level, message string) []byte {
	buf := make([]byte, 0, normalLogSize)
	buf = time.Now().AppendFormat(buf, "2006-01-02 15:04:05.000")
	buf = append(buf, " ["...)
	buf = append(buf, level.String()...)
	buf = append(buf, "] "...)

	if l.b.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		// Skip format, Writef and the level helper.
		_, file, line, ok := runtime.Caller(3)
		if !ok {
			file, line = "???", 0
		} else if l.b.flag&LogFlagShortFile != 0 {
			file = filepath.Base(file)
		}
		buf = append(buf, fmt.Sprintf("%s:%d ", file, line)...)
	}

	buf = append(buf, l.tag...)
	buf = append(buf, ": "...)
	buf = append(buf, message...)
	if !strings.HasSuffix(message, "\n") {
		buf = append(buf, '\n')
	}
	return buf
}

// BackendLog is the logging backend used by every subsystem logger.
var BackendLog = NewBackend()

var (
	subsystemLoggers      = make(map[string]*Logger)
	subsystemLoggersMutex sync.Mutex
)

// RegisterSubSystem returns the logger of the subsystem identified by tag,
// creating it on BackendLog on first use.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	logger, exists := subsystemLoggers[subsystem]
	if !exists {
		logger = BackendLog.Logger(subsystem)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

// Get returns a registered logger.
func Get(tag string) (logger *Logger, ok bool) {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	logger, ok = subsystemLoggers[tag]
	return
}

// SupportedSubsystems returns a sorted slice of the registered subsystems.
func SupportedSubsystems() []string {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) error {
	logger, ok := Get(subsystemID)
	if !ok {
		return errors.Errorf("unknown subsystem %q", subsystemID)
	}
	level, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	return nil
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
func SetLogLevels(logLevel string) error {
	level, err := ParseLevel(logLevel)
	if err != nil {
		return err
	}

	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
	return nil
}

// ParseAndSetLogLevels parses a level specification of the form "level" or
// "SUBSYS=level,SUBSYS2=level2" and applies it.
func ParseAndSetLogLevels(levelSpec string) error {
	if !strings.Contains(levelSpec, "=") && !strings.Contains(levelSpec, ",") {
		return SetLogLevels(levelSpec)
	}

	for _, pair := range strings.Split(levelSpec, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return errors.Errorf("the specified log level %q is invalid: "+
				"it must be of the form SUBSYS=level", pair)
		}
		err := SetLogLevel(fields[0], fields[1])
		if err != nil {
			return err
		}
	}
	return nil
}

// InitLog attaches log file and error log file to the backend log, mirrors
// info and above to stdout, and starts the backend.
func InitLog(logFile, errLogFile string) error {
	err := BackendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		return errors.Wrapf(err, "error adding log file %s as log rotator for level %s", logFile, LevelTrace)
	}
	err = BackendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return errors.Wrapf(err, "error adding log file %s as log rotator for level %s", errLogFile, LevelWarn)
	}
	err = BackendLog.AddLogWriter(nopCloser{os.Stdout}, LevelInfo)
	if err != nil {
		return errors.Wrap(err, "error adding stdout to the logger for level info")
	}
	return BackendLog.Run()
}
