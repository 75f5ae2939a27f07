package metrics

import "time"

// JobStarted marks a job of jobType as executing.
func JobStarted(jobType string) {
	JobsInFlight.WithLabelValues(jobType).Inc()
}

// JobCompleted records a successful job.
func JobCompleted(jobType string, duration time.Duration) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	JobsTotal.WithLabelValues(jobType, "completed").Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// JobFailed records a failed attempt. permanent is true when the job will
// not be retried.
func JobFailed(jobType string, duration time.Duration, permanent bool) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	status := "retry"
	if permanent {
		status = "failed"
	}
	JobsTotal.WithLabelValues(jobType, status).Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}
