package store

import "errors"

var (
	// ErrNoSuchKey is returned by operations that require an existing key.
	ErrNoSuchKey = errors.New("no such key")
	// ErrWrongType is returned when a command targets a key holding a
	// different value kind.
	ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	// ErrNotAnInteger is returned by incr/decr against a non-numeric string.
	ErrNotAnInteger = errors.New("value is not an integer or out of range")
	// ErrIndexOutOfRange is returned by lset/lindex against an invalid index.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidInput is returned when a write carries an unsupported value shape.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDestExists is returned by copy when the destination key already exists.
	ErrDestExists = errors.New("destination key already exists")
)
