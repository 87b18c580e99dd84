// Package yaencoding provides helpers for encoding Go values to Gob or
// MessagePack bytes and decoding them back. The encoders return raw bytes;
// ToString/ToBytes convert bytes to and from Base64 text where a text medium
// (e.g., JSON, HTTP) needs it.
// client.Value uses EncodeMessagePack/DecodeMessagePack to store any Go value
// that isn't a plain string inside store.Value's flat string field, tagging
// it with a blob prefix so a later get call knows to run it back through
// DecodeMessagePack instead of returning it verbatim.
//
// Each encode/decode returns yaerrors.Error to unify structured error handling
// in backend systems that use GoYaCodeDevUtils.
//
// Supported formats:
//   - Gob (native Go binary serialization)
//   - MessagePack (efficient binary encoding similar to Protobuf)
//
// Example usage:
//
//	type User struct {
//	    ID   int
//	    Name string
//	}
//
//	// GOB Example
//	user := User{ID: 1, Name: "Alice"}
//
//	encoded, err := yaencoding.EncodeGob(user)
//	if err != nil {
//	    log.Fatalf("encode failed: %v", err)
//	}
//
//	decoded, err := yaencoding.DecodeGob[User](encoded)
//	if err != nil {
//	    log.Fatalf("decode failed: %v", err)
//	}
//
//	fmt.Println(decoded.Name) // Output: Alice
//
//	// MessagePack Example
//	msgpackStr, err := yaencoding.EncodeMessagePack(user)
//	if err != nil {
//	    log.Fatalf("encode failed: %v", err)
//	}
//
//	mpDecoded, err := yaencoding.DecodeMessagePack[User](msgpackStr)
//	if err != nil {
//	    log.Fatalf("decode failed: %v", err)
//	}
//
//	fmt.Println(mpDecoded.ID) // Output: 1
package yaencoding

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeGob serializes the given value `v` using the Gob encoder.
//
// Returns the Gob bytes or a wrapped yaerrors.Error on failure.
//
// Example:
//
//	s := MyStruct{ID: 5, Name: "Ya Code"}
//	str, err := yaencoding.EncodeGob(s)
func EncodeGob(v any) ([]byte, yaerrors.Error) {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[ENCODING] failed to encode `%T` using gob", v),
		)
	}

	return buf.Bytes(), nil
}

// DecodeGob decodes Gob-encoded bytes back into a Go structure of type T.
//
// Example:
//
//	out, err := yaencoding.DecodeGob[MyStruct](encoded)
func DecodeGob[T any](data []byte) (*T, yaerrors.Error) {
	var v T

	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[ENCODING] failed to decode gob to `%T`", v),
		)
	}

	return &v, nil
}

// EncodeMessagePack serializes `value` using the MessagePack format and
// returns the raw bytes.
//
// Example:
//
//	str, err := yaencoding.EncodeMessagePack(myStruct)
func EncodeMessagePack(value any) ([]byte, yaerrors.Error) {
	bytes, err := msgpack.Marshal(value)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[ENCODING] failed to marshal %T using message pack format", value),
		)
	}

	return bytes, nil
}

// DecodeMessagePack decodes MessagePack bytes into a Go structure of type T.
//
// Example:
//
//	val, err := yaencoding.DecodeMessagePack[User](encoded)
func DecodeMessagePack[T any](bytes []byte) (*T, yaerrors.Error) {
	var res T

	if err := msgpack.Unmarshal(bytes, &res); err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			fmt.Sprintf("[ENCODING] failed to marshal %T as message pack format", bytes),
		)
	}

	return &res, nil
}

// ToString converts a byte slice into a base64 string.
// Useful for manual conversions.
func ToString(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ToBytes decodes a base64 string into bytes.
func ToBytes(data string) ([]byte, yaerrors.Error) {
	bytes, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[ENCODING] failed to decode string to bytes",
		)
	}

	return bytes, nil
}
