package logger

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Environment variable name for log level configuration.
const envLogLevel = "PFXP_LOG_LEVEL"

var (
	global   *logrus.Logger
	initOnce sync.Once

	// Optional flag (users may pass -log.level=debug). If flags.Parse() hasn't
	// yet been called when Init is invoked, we still read the raw os.Args.
	flagLevel = flag.String("log.level", "", "log level (debug, info, warn, error)")
)

// Init initializes the global logger. It is safe to call multiple times; the
// first call wins except SetLevel / UseWriter which mutate state intentionally.
func Init() {
	initOnce.Do(func() {
		global = logrus.New()
		global.SetFormatter(&logrus.JSONFormatter{})
		global.SetOutput(os.Stdout)
		global.SetLevel(detectLevel())
	})
}

// detectLevel resolves the initial log level from (precedence high→low):
//  1. command-line flag -log.level
//  2. environment variable PFXP_LOG_LEVEL
//  3. default (info)
func detectLevel() logrus.Level {
	if *flagLevel == "" {
		for _, arg := range os.Args[1:] {
			if strings.HasPrefix(arg, "-log.level=") {
				parts := strings.SplitN(arg, "=", 2)
				if len(parts) == 2 {
					*flagLevel = parts[1]
				}
			}
		}
	}
	if s := strings.TrimSpace(*flagLevel); s != "" {
		if lvl, err := logrus.ParseLevel(s); err == nil {
			return lvl
		}
	}
	if env := os.Getenv(envLogLevel); env != "" {
		if lvl, err := logrus.ParseLevel(env); err == nil {
			return lvl
		}
	}
	return logrus.InfoLevel
}

// SetLevel changes the runtime log level.
func SetLevel(level string) error {
	Init()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}
	global.SetLevel(lvl)
	return nil
}

// Level returns the current runtime level as string.
func Level() string {
	Init()
	return global.GetLevel().String()
}

// UseWriter swaps the output writer (intended for tests). Retains current level.
func UseWriter(w io.Writer) {
	Init()
	global.SetOutput(w)
}

// Entry wraps a logrus.Entry so callers can keep the teacher's variadic
// key/value calling convention instead of logrus.Fields literals.
type Entry struct {
	e *logrus.Entry
}

func kvFields(kv []any) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

// With attaches arbitrary key/value pairs to the entry.
func (l *Entry) With(kv ...any) *Entry {
	return &Entry{e: l.e.WithFields(kvFields(kv))}
}

func (l *Entry) Debug(msg string, kv ...any) { l.e.WithFields(kvFields(kv)).Debug(msg) }
func (l *Entry) Info(msg string, kv ...any)  { l.e.WithFields(kvFields(kv)).Info(msg) }
func (l *Entry) Warn(msg string, kv ...any)  { l.e.WithFields(kvFields(kv)).Warn(msg) }
func (l *Entry) Error(msg string, kv ...any) { l.e.WithFields(kvFields(kv)).Error(msg) }

// Logger returns the global logger entry (ensures Init was called).
func Logger() *Entry {
	Init()
	return &Entry{e: logrus.NewEntry(global)}
}

// Convenience top-level logging functions.
func Debug(msg string, kv ...any) { Logger().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { Logger().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { Logger().Warn(msg, kv...) }
func Error(msg string, kv ...any) { Logger().Error(msg, kv...) }

// WithPeer attaches the remote UDP peer address.
func WithPeer(l *Entry, peerAddr string) *Entry {
	return l.With("peer_addr", peerAddr)
}

// WithTransfer attaches transfer identity fields: the transfer id assigned at
// HELLO time and the wire name of the frame type being handled.
func WithTransfer(l *Entry, transferID uint64, frameType string) *Entry {
	return l.With("transfer_id", transferID, "frame_type", frameType)
}
