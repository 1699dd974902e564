package log

import "go.uber.org/zap"

// Field is an opaque structured logging field, matching the teacher's
// log.Field wrapper around zap.Field so call sites never import zap
// directly.
type Field struct {
	zf zap.Field
}

// LoggableField is implemented by any value that knows how to render
// itself as a structured log Field; block hashes, validator identities and
// ranks all implement it so they can be passed straight to a FieldLogger.
type LoggableField interface {
	Field() Field
}

// String builds a string field.
func String(key, value string) Field { return Field{zap.String(key, value)} }

// Stringer builds a field from any fmt.Stringer.
func Stringer(key string, value interface {
	String() string
}) Field {
	return Field{zap.String(key, value.String())}
}

// Uint64 builds a uint64 field.
func Uint64(key string, value uint64) Field { return Field{zap.Uint64(key, value)} }

// Int builds an int field.
func Int(key string, value int) Field { return Field{zap.Int(key, value)} }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return Field{zap.Bool(key, value)} }

// Err builds an error field.
func Err(err error) Field { return Field{zap.Error(err)} }

// Field lets a raw Field satisfy LoggableField, so helper constructors
// above can be passed directly to WithFields without a wrapper type.
func (f Field) Field() Field { return f }
