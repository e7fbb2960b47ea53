package telemetry

// MemoryRecorder keeps records in memory. Used by tests and by callers
// that want a run summary without re-reading the CSV.
type MemoryRecorder struct {
	Records []StepRecord
}

// Record appends one step.
func (m *MemoryRecorder) Record(r StepRecord) error {
	m.Records = append(m.Records, r)
	return nil
}
