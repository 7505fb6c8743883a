package junit

import (
	"path/filepath"

	"github.com/bitrise-steplib/steps-run-test-matrix/runner"
)

// Build maps a matrix run onto a JUnit document: one test suite per interpreter name,
// one test case per invocation. A plan listing an interpreter more than once yields a
// single suite holding every occurrence's test cases. A regular test failure carries
// the combined output as the failure message; an invocation that could not be launched
// is reported as an error.
func Build(result runner.MatrixResult) XML {
	var report XML

	for _, invocations := range result.Suites() {
		suite := TestSuite{
			Name:  invocations[0].Interpreter,
			Tests: len(invocations),
		}

		for _, invocation := range invocations {
			testCase := TestCase{
				Name:      filepath.Base(invocation.TestFile),
				ClassName: invocation.Interpreter,
				Time:      invocation.Duration.Seconds(),
			}

			switch {
			case invocation.Err != nil:
				suite.Errors++
				testCase.Error = &Error{
					Message: invocation.Err.Error(),
					Value:   invocation.Output,
				}
			case invocation.Failed:
				suite.Failures++
				testCase.Failure = invocation.Output
			}

			suite.Time += testCase.Time
			suite.TestCases = append(suite.TestCases, testCase)
		}

		report.TestSuites = append(report.TestSuites, suite)
	}

	return report
}
