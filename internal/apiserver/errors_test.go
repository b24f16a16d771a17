package apiserver

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dkasak/wlcap/internal/cerrors"
)

func TestStatusForMapsKnownKinds(t *testing.T) {
	cases := []struct {
		kind cerrors.Kind
		want int
	}{
		{cerrors.KindUnknownOutput, http.StatusNotFound},
		{cerrors.KindNoOutputs, http.StatusNotFound},
		{cerrors.KindNoOutputsInRegion, http.StatusNotFound},
		{cerrors.KindInvalidRegion, http.StatusBadRequest},
		{cerrors.KindFormatUnsupported, http.StatusBadRequest},
		{cerrors.KindTimeout, http.StatusGatewayTimeout},
		{cerrors.KindInternalInvariant, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := cerrors.New(tc.kind, "DP-1", nil)
		if got := statusFor(err); got != tc.want {
			t.Errorf("statusFor(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestStatusForNonCerrorsFallsBackTo500(t *testing.T) {
	if got := statusFor(fmt.Errorf("plain error")); got != http.StatusInternalServerError {
		t.Errorf("statusFor(plain error) = %d, want 500", got)
	}
}
