package junit

import (
	"errors"
	"testing"
	"time"

	"github.com/bitrise-steplib/steps-run-test-matrix/runner"
	"github.com/google/go-cmp/cmp"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		result runner.MatrixResult
		want   XML
	}{
		{
			name:   "empty run",
			result: runner.MatrixResult{},
			want:   XML{},
		},
		{
			name: "passing suite",
			result: runner.MatrixResult{Invocations: []runner.InvocationResult{
				{Interpreter: "python2.4", TestFile: "tests/test_validation.py", Output: "OK", Duration: 2 * time.Second},
				{Interpreter: "python2.4", TestFile: "tests/test_conversion.py", Output: "OK", Duration: time.Second},
			}},
			want: XML{TestSuites: []TestSuite{
				{
					Name:  "python2.4",
					Tests: 2,
					Time:  3,
					TestCases: []TestCase{
						{Name: "test_validation.py", ClassName: "python2.4", Time: 2},
						{Name: "test_conversion.py", ClassName: "python2.4", Time: 1},
					},
				},
			}},
		},
		{
			name: "failure carries the output",
			result: runner.MatrixResult{Invocations: []runner.InvocationResult{
				{Interpreter: "python3.0", TestFile: "tests/test_typecheck.py", Output: "FAILED (failures=1)", ExitCode: 1, Failed: true},
			}},
			want: XML{TestSuites: []TestSuite{
				{
					Name:     "python3.0",
					Tests:    1,
					Failures: 1,
					TestCases: []TestCase{
						{Name: "test_typecheck.py", ClassName: "python3.0", Failure: "FAILED (failures=1)"},
					},
				},
			}},
		},
		{
			name: "launch failure becomes an error",
			result: runner.MatrixResult{Invocations: []runner.InvocationResult{
				{Interpreter: "python2.5", TestFile: "tests/test_cooperation.py", Failed: true, ExitCode: -1, Err: errors.New("executable file not found in $PATH")},
			}},
			want: XML{TestSuites: []TestSuite{
				{
					Name:   "python2.5",
					Tests:  1,
					Errors: 1,
					TestCases: []TestCase{
						{Name: "test_cooperation.py", ClassName: "python2.5", Error: &Error{Message: "executable file not found in $PATH"}},
					},
				},
			}},
		},
		{
			name: "duplicate interpreter occurrences merge into one suite",
			result: runner.MatrixResult{Invocations: []runner.InvocationResult{
				{Interpreter: "python2.4", TestFile: "a.py"},
				{Interpreter: "python2.4", TestFile: "b.py"},
				{Interpreter: "python2.4", TestFile: "a.py"},
				{Interpreter: "python2.4", TestFile: "b.py", Output: "boom", ExitCode: 1, Failed: true},
			}},
			want: XML{TestSuites: []TestSuite{
				{
					Name:     "python2.4",
					Tests:    4,
					Failures: 1,
					TestCases: []TestCase{
						{Name: "a.py", ClassName: "python2.4"},
						{Name: "b.py", ClassName: "python2.4"},
						{Name: "a.py", ClassName: "python2.4"},
						{Name: "b.py", ClassName: "python2.4", Failure: "boom"},
					},
				},
			}},
		},
		{
			name: "one suite per interpreter",
			result: runner.MatrixResult{Invocations: []runner.InvocationResult{
				{Interpreter: "python2.4", TestFile: "a.py"},
				{Interpreter: "python2.5", TestFile: "a.py", Failed: true, ExitCode: 2, Output: "boom"},
			}},
			want: XML{TestSuites: []TestSuite{
				{
					Name:      "python2.4",
					Tests:     1,
					TestCases: []TestCase{{Name: "a.py", ClassName: "python2.4"}},
				},
				{
					Name:      "python2.5",
					Tests:     1,
					Failures:  1,
					TestCases: []TestCase{{Name: "a.py", ClassName: "python2.5", Failure: "boom"}},
				},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.result)
			if !cmp.Equal(got, tt.want) {
				t.Errorf("Build() = %v, want %v, \n Diff: %s", got, tt.want, cmp.Diff(got, tt.want))
			}
		})
	}
}
