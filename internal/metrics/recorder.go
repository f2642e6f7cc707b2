package metrics

import "time"

// ResultLabel enumerates section result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel is the final status of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build and section metrics.
type Recorder interface {
	ObserveSectionDuration(section string, d time.Duration)
	IncSectionResult(section string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	AddFilesStaged(n int)
	ObserveChecksumDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveSectionDuration(string, time.Duration) {}
func (NoopRecorder) IncSectionResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)           {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)            {}
func (NoopRecorder) AddFilesStaged(int)                           {}
func (NoopRecorder) ObserveChecksumDuration(time.Duration)        {}
