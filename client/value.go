package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/znsocket/znsocket-go/yaencoding"
	"github.com/znsocket/znsocket-go/wireerr"
)

const (
	// listPrefix and dictPrefix mark a stored string as a cross-reference
	// to another List/Dict key rather than a literal scalar value (spec
	// §4.7 "rehydrated into a nested distributed object").
	listPrefix = "List:"
	dictPrefix = "Dict:"
	blobPrefix = "Blob:"
)

// Ref is satisfied by *List and *Dict: anything that can be referenced by
// key and therefore written as a cross-reference instead of a literal.
type Ref interface {
	refKey() string
	refPrefix() string
}

func (l *List) refKey() string    { return l.key }
func (l *List) refPrefix() string { return listPrefix }
func (d *Dict) refKey() string    { return d.key }
func (d *Dict) refPrefix() string { return dictPrefix }

// encodeValue turns a Go value into the string representation stored in
// the backend. *List/*Dict become a "List:"/"Dict:" cross-reference by
// key; scalars are formatted directly; everything else is MessagePack
// encoded and base64-wrapped, so arbitrary blobs (S7: a 1000x1000 float64
// array) round-trip byte-exact through a string-only storage backend.
func encodeValue(v any) (string, wireerr.Error) {
	switch typed := v.(type) {
	case nil:
		return "", wireerr.Data("nil value is not an accepted scalar")
	case Ref:
		return typed.refPrefix() + typed.refKey(), nil
	case string:
		return typed, nil
	case bool:
		return strconv.FormatBool(typed), nil
	case int:
		return strconv.Itoa(typed), nil
	case int64:
		return strconv.FormatInt(typed, 10), nil
	case float64:
		return strconv.FormatFloat(typed, 'g', -1, 64), nil
	default:
		packed, err := yaencoding.EncodeMessagePack(v)
		if err != nil {
			return "", wireerr.Data(fmt.Sprintf("cannot encode value of type %T", v))
		}

		return blobPrefix + yaencoding.ToString(packed), nil
	}
}

// decodeScalar rehydrates a stored string into the value a reader should
// observe: a nested *List/*Dict for a cross-reference, or the literal
// string for everything else. Blob-encoded values are returned as their
// raw "Blob:..." form — callers that know the concrete type should use
// DecodeBlob instead of relying on this generic rehydration.
func decodeScalar(resolver *Resolver, stored string) any {
	switch {
	case strings.HasPrefix(stored, listPrefix):
		return NewList(resolver, strings.TrimPrefix(stored, listPrefix))
	case strings.HasPrefix(stored, dictPrefix):
		return NewDict(resolver, strings.TrimPrefix(stored, dictPrefix))
	default:
		return stored
	}
}

// DecodeBlob decodes a value previously stored via encodeValue's
// MessagePack fallback back into T.
func DecodeBlob[T any](stored string) (T, wireerr.Error) {
	var zero T

	if !strings.HasPrefix(stored, blobPrefix) {
		return zero, wireerr.Data("value is not a blob-encoded payload")
	}

	raw, err := yaencoding.ToBytes(strings.TrimPrefix(stored, blobPrefix))
	if err != nil {
		return zero, wireerr.Data("blob payload is not valid base64")
	}

	decoded, err := yaencoding.DecodeMessagePack[T](raw)
	if err != nil {
		return zero, wireerr.Data("blob payload does not decode as " + fmt.Sprintf("%T", zero))
	}

	return *decoded, nil
}

// isSelfReference rejects `lst[i] = lst` (Design Note "Cyclic references"):
// a Ref argument naming this exact object's own key.
func isSelfReference(self Ref, v any) bool {
	ref, ok := v.(Ref)
	if !ok {
		return false
	}

	return ref.refPrefix() == self.refPrefix() && ref.refKey() == self.refKey()
}
