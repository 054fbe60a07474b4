package models

import "testing"

func TestEnrichmentJob_CanTransition(t *testing.T) {
	cases := []struct {
		name     string
		status   JobStatus
		attempts int
		max      int
		next     JobStatus
		want     bool
	}{
		{"pending to running", JobStatusPending, 0, 3, JobStatusRunning, true},
		{"pending to cancelled", JobStatusPending, 0, 3, JobStatusCancelled, true},
		{"pending to completed skips running", JobStatusPending, 0, 3, JobStatusCompleted, false},
		{"running to completed", JobStatusRunning, 1, 3, JobStatusCompleted, true},
		{"running to failed", JobStatusRunning, 1, 3, JobStatusFailed, true},
		{"running to cancelled", JobStatusRunning, 1, 3, JobStatusCancelled, true},
		{"running back to pending", JobStatusRunning, 1, 3, JobStatusPending, false},
		{"failed retries with budget", JobStatusFailed, 1, 3, JobStatusPending, true},
		{"failed exhausted stays put", JobStatusFailed, 3, 3, JobStatusPending, false},
		{"failed never runs directly", JobStatusFailed, 1, 3, JobStatusRunning, false},
		{"completed is terminal", JobStatusCompleted, 1, 3, JobStatusPending, false},
		{"cancelled is terminal", JobStatusCancelled, 1, 3, JobStatusRunning, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := &EnrichmentJob{Status: tc.status, Attempts: tc.attempts, MaxAttempts: tc.max}
			if got := job.CanTransition(tc.next); got != tc.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.status, tc.next, got, tc.want)
			}
		})
	}
}

func TestEnrichmentJob_Terminal(t *testing.T) {
	cases := []struct {
		name     string
		status   JobStatus
		attempts int
		max      int
		want     bool
	}{
		{"pending", JobStatusPending, 0, 3, false},
		{"running", JobStatusRunning, 1, 3, false},
		{"completed", JobStatusCompleted, 1, 3, true},
		{"cancelled", JobStatusCancelled, 1, 3, true},
		{"failed with budget", JobStatusFailed, 2, 3, false},
		{"failed exhausted", JobStatusFailed, 3, 3, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := &EnrichmentJob{Status: tc.status, Attempts: tc.attempts, MaxAttempts: tc.max}
			if got := job.Terminal(); got != tc.want {
				t.Errorf("Terminal() = %v, want %v", got, tc.want)
			}
		})
	}
}
