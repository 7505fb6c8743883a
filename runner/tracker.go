package runner

import (
	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
)

type tracker struct {
	tracker analytics.Tracker
}

func newTracker(envRepo env.Repository, logger log.Logger) tracker {
	p := analytics.Properties{
		"step_id":    "run-test-matrix",
		"build_slug": envRepo.Get("BITRISE_BUILD_SLUG"),
		"app_slug":   envRepo.Get("BITRISE_APP_SLUG"),
	}
	return tracker{
		tracker: analytics.NewDefaultTracker(logger, p),
	}
}

func (t tracker) logInvocationFinished(result InvocationResult) {
	properties := analytics.Properties{
		"interpreter": result.Interpreter,
		"test_file":   result.TestFile,
		"exit_code":   result.ExitCode,
		"failed":      result.Failed,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		properties["error"] = result.Err.Error()
	}

	t.tracker.Enqueue("test_matrix_invocation_finished", properties)
}

func (t tracker) logMatrixFinished(result MatrixResult) {
	t.tracker.Enqueue("test_matrix_finished", analytics.Properties{
		"invocation_count": len(result.Invocations),
		"fail_count":       result.FailCount(),
	})
}

func (t tracker) wait() {
	t.tracker.Wait()
}
