package wlsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/dkasak/wlcap/internal/capture"
	"github.com/dkasak/wlcap/internal/wlsession"
	"github.com/dkasak/wlcap/internal/wlsession/wlsessiontest"
)

func openFakeSession(t *testing.T, cfgs []wlsessiontest.OutputConfig) *wlsession.Session {
	t.Helper()
	fake, clientConn, err := wlsessiontest.NewPair(cfgs)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	go fake.Serve()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	session, err := wlsession.OpenConn(ctx, clientConn)
	if err != nil {
		t.Fatalf("OpenConn: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func singleOutputConfig() []wlsessiontest.OutputConfig {
	return []wlsessiontest.OutputConfig{
		{
			Name: "WL-1", X: 0, Y: 0,
			PhysicalWidth: 1920, PhysicalHeight: 1080,
			Scale: 1, Transform: 0,
			LogicalX: 0, LogicalY: 0, LogicalWidth: 1920, LogicalHeight: 1080,
			Fill: 0x40,
		},
	}
}

func TestSessionOpenDiscoversOutputs(t *testing.T) {
	session := openFakeSession(t, singleOutputConfig())

	records := session.Outputs.List()
	if len(records) != 1 {
		t.Fatalf("expected 1 output, got %d", len(records))
	}
	rec := records[0]
	if rec.Name != "WL-1" {
		t.Errorf("expected output name WL-1, got %q", rec.Name)
	}
	if rec.Physical.Width != 1920 || rec.Physical.Height != 1080 {
		t.Errorf("unexpected physical geometry: %+v", rec.Physical)
	}
	if rec.Logical.Width != 1920 || rec.Logical.Height != 1080 {
		t.Errorf("unexpected logical geometry: %+v", rec.Logical)
	}
}

func TestEngineCaptureOutput(t *testing.T) {
	session := openFakeSession(t, singleOutputConfig())
	engine := capture.New(session)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	img, err := engine.Capture(ctx, capture.Spec{Kind: capture.KindByOutput, Output: "WL-1"})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.Width != 1920 || img.Height != 1080 {
		t.Fatalf("unexpected image size: %dx%d", img.Width, img.Height)
	}
	off := img.At(0, 0)
	r, g, b, a := img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]
	if r != 0x40 || g != 0x40 || b != 0x40 || a != 0xff {
		t.Errorf("unexpected pixel at origin: %d,%d,%d,%d", r, g, b, a)
	}
}

func TestEngineCaptureWholeScreenMultiOutput(t *testing.T) {
	cfgs := []wlsessiontest.OutputConfig{
		{
			Name: "WL-1", X: 0, Y: 0,
			PhysicalWidth: 1024, PhysicalHeight: 768,
			Scale: 1, Transform: 0,
			LogicalX: 0, LogicalY: 0, LogicalWidth: 1024, LogicalHeight: 768,
			Fill: 0x10,
		},
		{
			Name: "WL-2", X: 1024, Y: 0,
			PhysicalWidth: 800, PhysicalHeight: 600,
			Scale: 1, Transform: 0,
			LogicalX: 1024, LogicalY: 0, LogicalWidth: 800, LogicalHeight: 600,
			Fill: 0x20,
		},
	}
	session := openFakeSession(t, cfgs)
	engine := capture.New(session)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	img, err := engine.Capture(ctx, capture.Spec{Kind: capture.KindWholeScreen})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.Width != 1824 || img.Height != 768 {
		t.Fatalf("unexpected composite size: %dx%d", img.Width, img.Height)
	}

	r := img.Pix[img.At(0, 0)]
	if r != 0x10 {
		t.Errorf("expected left output fill 0x10 at (0,0), got %#x", r)
	}
	r = img.Pix[img.At(1024, 0)]
	if r != 0x20 {
		t.Errorf("expected right output fill 0x20 at (1024,0), got %#x", r)
	}
}

func TestEngineCaptureManyAtomicBatch(t *testing.T) {
	cfgs := []wlsessiontest.OutputConfig{
		{Name: "WL-1", PhysicalWidth: 640, PhysicalHeight: 480, Scale: 1, LogicalWidth: 640, LogicalHeight: 480, Fill: 0x55},
		{Name: "WL-2", X: 640, PhysicalWidth: 640, PhysicalHeight: 480, Scale: 1, LogicalX: 640, LogicalWidth: 640, LogicalHeight: 480, Fill: 0x66},
	}
	session := openFakeSession(t, cfgs)
	engine := capture.New(session)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := engine.CaptureMany(ctx, capture.Spec{Outputs: []string{"WL-1", "WL-2"}})
	if err != nil {
		t.Fatalf("CaptureMany: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if _, ok := results["WL-1"]; !ok {
		t.Error("missing WL-1 result")
	}
	if _, ok := results["WL-2"]; !ok {
		t.Error("missing WL-2 result")
	}
}
