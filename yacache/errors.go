package yacache

import "errors"

// ErrKeyNotFound is returned by Get when the requested key is absent or,
// for Memory, already past its TTL but not yet swept.
var ErrKeyNotFound = errors.New("yacache: key not found")
