// Package logging sets up the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field keys shared by the pipeline log lines.
const (
	KeyRunID  = "run_id"
	KeyVendor = "vendor"
	KeyImage  = "image"
	KeyStage  = "stage"
	KeyError  = "error"
)

// Fields is the field map passed to WithFields.
type Fields = logrus.Fields

// Options control where the logger writes.
type Options struct {
	// Env is the APP_ENV value. No log file is written for "test".
	Env string
	// Dir receives the rotating log file. Empty disables file output.
	Dir string
	// Level defaults to debug when nil.
	Level *logrus.Level
	// Output replaces stderr, mostly for tests.
	Output io.Writer
}

var (
	logger *logrus.Logger
	once   sync.Once
)

// Init builds the shared logger on first use. Later calls return the same
// logger and ignore opts.
func Init(opts Options) *logrus.Logger {
	once.Do(func() {
		logger = New(opts)
	})
	return logger
}

// Logger returns the shared logger, building a stderr-only one if Init was
// never called.
func Logger() *logrus.Logger {
	return Init(Options{Env: os.Getenv("APP_ENV")})
}

// New builds a standalone logger.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	level := logrus.DebugLevel
	if opts.Level != nil {
		level = *opts.Level
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		NoColors:        opts.Output != nil,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}
	if opts.Env != "test" && opts.Dir != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, fmt.Sprintf("nfc-locator-%s.log", time.Now().Format("2006-01-02"))),
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(true)
	return l
}

// NewRunID returns an identifier for one batch run.
func NewRunID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return "unknown"
	}
	return id.String()
}

// ForRun returns an entry tagged with a fresh run ID.
func ForRun(l logrus.FieldLogger) (*logrus.Entry, string) {
	id := NewRunID()
	return l.WithField(KeyRunID, id), id
}
