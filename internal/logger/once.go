package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	onceMu    sync.Mutex
	onceCount = map[string]int{}
)

// WarnOnce logs msg at warn level the first time key is reported. Later
// reports with the same key are only counted. It returns true when the
// message was written.
func WarnOnce(key, msg string, fields ...zap.Field) bool {
	return logOnce(zapcore.WarnLevel, key, msg, fields)
}

// DebugOnce is WarnOnce at debug level.
func DebugOnce(key, msg string, fields ...zap.Field) bool {
	return logOnce(zapcore.DebugLevel, key, msg, fields)
}

// OnceCount returns how many times key has been reported.
func OnceCount(key string) int {
	onceMu.Lock()
	defer onceMu.Unlock()
	return onceCount[key]
}

// ResetOnce forgets every reported key.
func ResetOnce() {
	onceMu.Lock()
	onceCount = map[string]int{}
	onceMu.Unlock()
}

func logOnce(lvl zapcore.Level, key, msg string, fields []zap.Field) bool {
	onceMu.Lock()
	onceCount[key]++
	first := onceCount[key] == 1
	onceMu.Unlock()

	if !first {
		return false
	}
	fields = append(fields, zap.String("once", "further occurrences are suppressed"))
	if ce := Log.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
	return true
}

// suppressed returns the number of once-only reports that were not
// written.
func suppressed() int {
	onceMu.Lock()
	defer onceMu.Unlock()
	n := 0
	for _, c := range onceCount {
		n += c - 1
	}
	return n
}
