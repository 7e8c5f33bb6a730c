package recursivehasher

import (
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logMu              sync.RWMutex
	globalVerboseLevel int
	debugFlags         map[string]bool
	logger             = newDefaultLogger()
)

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.Level = logrus.InfoLevel
	l.Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	return l
}

// Logger returns the package logger
func Logger() *logrus.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// SetLogger replaces the package logger; nil restores the default
func SetLogger(l *logrus.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	if l == nil {
		l = newDefaultLogger()
	}
	logger = l
	applyLevel()
}

// SetLogFormat selects the log formatter: "text" or "json"
func SetLogFormat(format string) {
	logMu.Lock()
	defer logMu.Unlock()
	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
}

// SetVerboseLevel sets the global verbose level
func SetVerboseLevel(level int) {
	logMu.Lock()
	defer logMu.Unlock()
	globalVerboseLevel = level
	applyLevel()
}

// GetVerboseLevel returns the current verbose level
func GetVerboseLevel() int {
	logMu.RLock()
	defer logMu.RUnlock()
	return globalVerboseLevel
}

// applyLevel maps verbose levels onto logrus levels; caller holds logMu
func applyLevel() {
	switch {
	case globalVerboseLevel >= 3:
		logger.SetLevel(logrus.TraceLevel)
	case globalVerboseLevel >= 1:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}
}

// VerboseEnter logs function entry at level 3+ and returns a defer function for exit logging
func VerboseEnter() func() {
	if GetVerboseLevel() < 3 {
		return func() {}
	}

	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return func() {}
	}

	funcName := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(funcName, "."); idx != -1 {
		funcName = funcName[idx+1:]
	}

	entry := Logger().WithField("func", funcName)
	entry.Trace("entering")
	return func() {
		entry.Trace("exiting")
	}
}

// VerboseLog logs a message at the specified verbose level
func VerboseLog(level int, format string, args ...interface{}) {
	if GetVerboseLevel() < level {
		return
	}
	entry := Logger().WithField("verbose", level)
	if level >= 3 {
		entry.Tracef(strings.TrimSuffix(format, "\n"), args...)
		return
	}
	entry.Debugf(strings.TrimSuffix(format, "\n"), args...)
}

// SetDebugFlags sets the debug flags from a comma-separated string
// Supports both simple flags ("scan,hash") and key:value format ("scan:true,hash:false")
func SetDebugFlags(flagsStr string) {
	flags := make(map[string]bool)
	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		parts := strings.SplitN(flag, ":", 2)
		flagName := strings.ToLower(parts[0])
		flagValue := true

		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "false", "0", "no", "off":
				flagValue = false
			}
		}

		flags[flagName] = flagValue
	}

	logMu.Lock()
	debugFlags = flags
	logMu.Unlock()
}

// IsDebugEnabled returns true if the specified debug flag is enabled
func IsDebugEnabled(flag string) bool {
	logMu.RLock()
	defer logMu.RUnlock()
	if debugFlags == nil {
		return false
	}
	return debugFlags[strings.ToLower(flag)]
}

// debugLog writes a debug line tagged with its subsystem when that debug flag is on
func debugLog(flag string, format string, args ...interface{}) {
	if !IsDebugEnabled(flag) {
		return
	}
	Logger().WithField("debug", flag).Infof(format, args...)
}
