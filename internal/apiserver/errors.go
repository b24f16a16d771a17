package apiserver

import (
	"errors"
	"net/http"

	"github.com/dkasak/wlcap/internal/cerrors"
)

// statusFor maps a capture error's Kind to the HTTP status a client
// should see; anything unrecognized is a 500.
func statusFor(err error) int {
	var cerr *cerrors.Error
	if !errors.As(err, &cerr) {
		return http.StatusInternalServerError
	}
	switch cerr.Kind {
	case cerrors.KindUnknownOutput, cerrors.KindNoOutputs, cerrors.KindNoOutputsInRegion:
		return http.StatusNotFound
	case cerrors.KindInvalidRegion, cerrors.KindFormatUnsupported:
		return http.StatusBadRequest
	case cerrors.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
