package dispatch

import (
	"errors"

	"github.com/znsocket/znsocket-go/yaerrors"
	"github.com/znsocket/znsocket-go/store"
	"github.com/znsocket/znsocket-go/wireerr"
)

// wrapStoreErr classifies a raw store error into the wire taxonomy of
// spec §7: WRONGTYPE/no-such-key/not-an-integer/index-out-of-range are all
// Redis-style semantic errors (ResponseError); an unsupported value shape
// on write is a DataError.
func wrapStoreErr(err yaerrors.Error) wireerr.Error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err.Unwrap(), store.ErrInvalidInput):
		return wireerr.Data(err.UnwrapLastError())
	default:
		return wireerr.Response(err.UnwrapLastError())
	}
}
