package logger

import "sync"

var (
	globalMu     sync.RWMutex
	globalLogger = NewDefault("fieldcrypt")
)

// Init replaces the global logger using cfg.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	SetGlobalLogger(New(&cfg, cfg.ServiceName))
}

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// Get returns the global logger.
func Get() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// Debug logs on the global logger.
func Debug(msg string, fields ...map[string]interface{}) { Get().Debug(msg, fields...) }

// Info logs on the global logger.
func Info(msg string, fields ...map[string]interface{}) { Get().Info(msg, fields...) }

// Warn logs on the global logger.
func Warn(msg string, fields ...map[string]interface{}) { Get().Warn(msg, fields...) }

// Error logs on the global logger.
func Error(msg string, fields ...map[string]interface{}) { Get().Error(msg, fields...) }
