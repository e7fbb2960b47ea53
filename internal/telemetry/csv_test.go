package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
)

func sampleRecords() []StepRecord {
	return []StepRecord{
		{T: 0.05, X: 0.0125, Y: 0, Theta: 0, NearestDist: 1.0, State: policy.StateForward,
			Reason: policy.ReasonClear, V: 0.25, Omega: 0, NearestX: 1.0, NearestY: 0},
		{T: 0.10, X: 0.025, Y: 0, Theta: 0.09, NearestDist: 0.29, State: policy.StateTurn,
			Reason: policy.ReasonTooClose, V: 0, Omega: -1.8, NearestX: 1.0, NearestY: 0},
	}
}

func TestCSVWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w, err := NewCSVWriter(f)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	want := sampleRecords()
	for _, r := range want {
		if err := w.Record(r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVFlushedPerRow(t *testing.T) {
	// An interrupted run must keep every row written so far: rows are
	// visible on disk without closing the writer.
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	w, err := NewCSVWriter(f)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Record(sampleRecords()[0]); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := ReadRecords(path)
	if err != nil {
		t.Fatalf("ReadRecords before close: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("rows on disk = %d, want 1", len(got))
	}
}

func TestReadRecordsMissingFile(t *testing.T) {
	_, err := ReadRecords(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("err = %v, want ErrNoTelemetry", err)
	}
}

func TestReadRecordsHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	if err := os.WriteFile(path, []byte("t,x,y,theta,dmin,state,reason,v,omega,nearest_ox,nearest_oy\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadRecords(path); !errors.Is(err, ErrNoTelemetry) {
		t.Errorf("err = %v, want ErrNoTelemetry", err)
	}
}

func TestReadRecordsMalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	contents := "t,x,y,theta,dmin,state,reason,v,omega,nearest_ox,nearest_oy\n" +
		"abc,0,0,0,1,FORWARD,clear,0.25,0,1,0\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadRecords(path); err == nil {
		t.Error("expected parse error for malformed row")
	}
}
