package metrics

const (
	JobScope = "job"

	// Per state counters, tagged with StateTag.
	Success = "success"
	Failure = "failure"

	Latency = "latency"

	StateTag = "state"
)
