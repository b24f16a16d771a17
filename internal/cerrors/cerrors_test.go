package cerrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dkasak/wlcap/internal/cerrors"
)

func TestErrorStringVariants(t *testing.T) {
	cases := []struct {
		name string
		err  *cerrors.Error
		want string
	}{
		{"kind only", cerrors.New(cerrors.KindNoOutputs, "", nil), "no-outputs"},
		{"kind and output", cerrors.New(cerrors.KindUnknownOutput, "DP-1", nil), "unknown-output: DP-1"},
		{"kind and detail", cerrors.New(cerrors.KindTimeout, "", fmt.Errorf("deadline exceeded")), "timeout (deadline exceeded)"},
		{"all three", cerrors.New(cerrors.KindCaptureFailed, "DP-2", fmt.Errorf("frame failed")), "capture-failed: DP-2 (frame failed)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsMatchesByKindOnly(t *testing.T) {
	err := cerrors.New(cerrors.KindUnknownOutput, "DP-1", fmt.Errorf("no such output"))
	if !errors.Is(err, cerrors.Sentinel(cerrors.KindUnknownOutput)) {
		t.Error("expected errors.Is to match on Kind regardless of Output/Detail")
	}
	if errors.Is(err, cerrors.Sentinel(cerrors.KindTimeout)) {
		t.Error("expected errors.Is to reject a different Kind")
	}
}

func TestUnwrapExposesDetail(t *testing.T) {
	detail := fmt.Errorf("underlying cause")
	err := cerrors.New(cerrors.KindAllocationFailed, "", detail)
	if !errors.Is(err, detail) {
		t.Error("expected errors.Is to reach the wrapped detail error")
	}
}

func TestIsRejectsForeignErrorTypes(t *testing.T) {
	err := cerrors.New(cerrors.KindTimeout, "", nil)
	if errors.Is(err, fmt.Errorf("some other error")) {
		t.Error("expected Is to reject an error that isn't a *cerrors.Error")
	}
}
