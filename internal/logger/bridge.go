package logger

// Logger is the object-logging surface handed to packages that take an
// injected logger instead of reaching for the package-level one.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Std returns a Logger backed by the package-level sugared logger.
func Std() Logger { return stdLogger{} }

type stdLogger struct{}

func (stdLogger) InfoObj(msg, key string, obj interface{})  { InfoObj(msg, key, obj) }
func (stdLogger) DebugObj(msg, key string, obj interface{}) { DebugObj(msg, key, obj) }
func (stdLogger) WarnObj(msg, key string, obj interface{})  { WarnObj(msg, key, obj) }
func (stdLogger) ErrorObj(msg, key string, obj interface{}) { ErrorObj(msg, key, obj) }

// NopLogger discards all log output.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, interface{})  {}
func (*NopLogger) DebugObj(string, string, interface{}) {}
func (*NopLogger) WarnObj(string, string, interface{})  {}
func (*NopLogger) ErrorObj(string, string, interface{}) {}
