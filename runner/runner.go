package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/command"
	"github.com/bitrise-io/go-utils/errorutil"
	commandv2 "github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-run-test-matrix/matrix"
)

// InvocationResult holds the outcome of a single interpreter + test file invocation.
// Err is set only when the invocation could not be launched (for example a missing
// interpreter binary); a regular test failure carries the exit code and output only.
type InvocationResult struct {
	Interpreter string
	TestFile    string
	Output      string
	ExitCode    int
	Failed      bool
	Err         error
	Duration    time.Duration
}

// MatrixResult is the ordered list of all invocation outcomes of a run.
type MatrixResult struct {
	Invocations []InvocationResult
}

// FailCount returns the number of failed invocations.
func (r MatrixResult) FailCount() int {
	count := 0
	for _, invocation := range r.Invocations {
		if invocation.Failed {
			count++
		}
	}
	return count
}

// Suites groups the invocation results by interpreter name, keeping the run order.
// A plan listing the same interpreter more than once runs it once per occurrence,
// but all of its invocations land in a single group.
func (r MatrixResult) Suites() [][]InvocationResult {
	var suites [][]InvocationResult
	indexByInterpreter := map[string]int{}
	for _, invocation := range r.Invocations {
		i, ok := indexByInterpreter[invocation.Interpreter]
		if !ok {
			i = len(suites)
			indexByInterpreter[invocation.Interpreter] = i
			suites = append(suites, nil)
		}
		suites[i] = append(suites[i], invocation)
	}
	return suites
}

type usageTracker interface {
	logInvocationFinished(result InvocationResult)
	logMatrixFinished(result MatrixResult)
	wait()
}

// Runner executes a matrix plan sequentially.
type Runner struct {
	cmdFactory commandv2.Factory
	logger     log.Logger
	tracker    usageTracker
}

// NewRunner ...
func NewRunner(logger log.Logger) Runner {
	envRepo := env.NewRepository()
	return Runner{
		cmdFactory: commandv2.NewFactory(envRepo),
		logger:     logger,
		tracker:    newTracker(envRepo, logger),
	}
}

// Run executes every invocation of the plan, one at a time, printing a banner before
// each interpreter's group. A failed or unlaunchable invocation never prevents the
// remaining ones from running.
func (r Runner) Run(plan matrix.Plan) MatrixResult {
	var result MatrixResult
	for _, interpreter := range plan.Interpreters {
		r.logger.Println()
		r.logger.Infof("Running tests with %s", interpreter)

		for _, testFile := range plan.TestFiles {
			invocation := r.runInvocation(plan, interpreter, testFile)
			r.tracker.logInvocationFinished(invocation)
			result.Invocations = append(result.Invocations, invocation)
		}
	}

	r.tracker.logMatrixFinished(result)
	r.tracker.wait()

	return result
}

func (r Runner) runInvocation(plan matrix.Plan, interpreter, testFile string) InvocationResult {
	var outBuf bytes.Buffer
	cmd := r.cmdFactory.Create(interpreter, []string{testFile}, &commandv2.Opts{
		Stdout: &outBuf,
		Stderr: &outBuf,
		Dir:    plan.WorkDir,
		Env:    append(os.Environ(), plan.Env()),
	})

	r.logger.Printf("$ %s", cmd.PrintableCommandArgs())

	startTime := time.Now()
	err := cmd.Run()
	duration := time.Since(startTime)

	result := InvocationResult{
		Interpreter: interpreter,
		TestFile:    testFile,
		Output:      strings.TrimSpace(outBuf.String()),
		Duration:    duration,
	}

	if err != nil {
		result.Failed = true
		if errorutil.IsExitStatusError(err) {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitCode()
			}
			r.logger.Warnf("%s exited with code %d", cmd.PrintableCommandArgs(), result.ExitCode)
		} else {
			result.ExitCode = -1
			result.Err = err
			r.logger.Warnf("failed to run %s: %s", cmd.PrintableCommandArgs(), err)
		}
	}

	return result
}

// ProbeInterpreters looks up each interpreter binary and queries its version banner.
// The probe is informational: a missing or unqueryable interpreter is only logged,
// its invocations are still attempted by Run.
func (r Runner) ProbeInterpreters(names []string) map[string]string {
	versions := map[string]string{}
	for _, name := range names {
		pth, err := exec.LookPath(name)
		if err != nil {
			r.logger.Warnf("- %s: not found in PATH", name)
			continue
		}

		version, err := interpreterVersion(name)
		if err != nil {
			r.logger.Debugf("Failed to query %s version: %s", name, err)
			r.logger.Printf("- %s (%s)", name, pth)
			continue
		}

		r.logger.Printf("- %s (%s): %s", name, pth, version)
		versions[name] = version
	}
	return versions
}

// interpreterVersion runs `<name> -V` and returns the banner. Older interpreters print
// the banner on stderr, so the combined output is captured.
func interpreterVersion(name string) (string, error) {
	cmd := command.New(name, "-V")
	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		if errorutil.IsExitStatusError(err) {
			return "", fmt.Errorf("%s failed: %s", cmd.PrintableCommandArgs(), out)
		}
		return "", fmt.Errorf("%s failed: %s", cmd.PrintableCommandArgs(), err)
	}
	if out == "" {
		return "", fmt.Errorf("%s printed no version banner", cmd.PrintableCommandArgs())
	}
	return out, nil
}
