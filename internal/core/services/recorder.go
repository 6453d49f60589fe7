package services

// Recorder receives workflow measurements. metrics.Metrics implements it.
type Recorder interface {
	DetectionOutcome(outcome string)
	MoodDetected(mood string)
	SearchOutcome(outcome string)
	StaleDiscarded()
	ModelsReady(ready bool)
	ObserveStep(step string, seconds float64)
}

type nopRecorder struct{}

func (nopRecorder) DetectionOutcome(string)     {}
func (nopRecorder) MoodDetected(string)         {}
func (nopRecorder) SearchOutcome(string)        {}
func (nopRecorder) StaleDiscarded()             {}
func (nopRecorder) ModelsReady(bool)            {}
func (nopRecorder) ObserveStep(string, float64) {}
