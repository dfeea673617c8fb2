package citation

// Recorder receives pipeline telemetry. observability.Metrics implements it.
type Recorder interface {
	RecordSearchStarted(source string)
	RecordSearchCompleted(source string, articleCount int, durationSeconds float64)
	RecordSearchFailed(source string, durationSeconds float64)
	RecordCandidates(source string, admitted, rejected int)
	RecordArticlesSelected(count int)
	RecordCitationsInserted(count int)
	RecordStageDegraded(component string)
}

// NopRecorder discards all telemetry.
type NopRecorder struct{}

func (NopRecorder) RecordSearchStarted(string) {}

func (NopRecorder) RecordSearchCompleted(string, int, float64) {}

func (NopRecorder) RecordSearchFailed(string, float64) {}

func (NopRecorder) RecordCandidates(string, int, int) {}

func (NopRecorder) RecordArticlesSelected(int) {}

func (NopRecorder) RecordCitationsInserted(int) {}

func (NopRecorder) RecordStageDegraded(string) {}
