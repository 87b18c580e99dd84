package yalogger

import "errors"

// Level mirrors logrus.Level's ordering so NewBaseLogger can cast it
// directly into the logrus formatter/level setters.
type Level uint8

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// BaseLoggerType selects which concrete BaseLogger NewBaseLogger builds.
type BaseLoggerType uint8

const (
	Logrus BaseLoggerType = iota
)

const (
	KeyRequestID       = "request_id"
	KeySystemRequestID = "system_request_id"
	KeyUserID          = "user_id"
)

// ErrInvalidLogLevel is returned by Level.Unmarshal/UnmarshalText for any
// text that does not name one of the levels above.
var ErrInvalidLogLevel = errors.New("yalogger: invalid log level")
