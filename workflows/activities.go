package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"temporal-worker-onboarding/activities"
	"temporal-worker-onboarding/shared"
)

// a is the activities struct used by workflows to reference activity methods.
// The actual struct is registered with the worker; this variable is only used
// to provide method references for workflow.ExecuteActivity calls.
var a *activities.Activities

// remoteOptions runs a backend call exactly once. A failed step is retried
// by the worker re-submitting it, never automatically.
func remoteOptions(timeout time.Duration) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: timeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
}

// adapterOptions waits on a person, so it gets the long human-interaction
// budget and is never retried.
func adapterOptions() workflow.ActivityOptions {
	return remoteOptions(shared.AdapterSessionTimeout)
}

// notifyOptions retries delivery to the host; the session outcome is
// already decided.
func notifyOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		TaskQueue:           shared.ActivityTaskQueue,
		StartToCloseTimeout: shared.HostNotifyTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
}
