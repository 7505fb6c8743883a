package matrix

import (
	"fmt"
	"strings"

	"github.com/bitrise-io/go-utils/pathutil"
)

// Plan is the complete, ordered description of a matrix run: which interpreters to use,
// which test files to run under each of them, and the module search path the child
// processes inherit. A Plan is immutable once built.
type Plan struct {
	WorkDir       string
	ModulePathKey string
	ModulePath    string
	Interpreters  []string
	TestFiles     []string
}

// Invocation is a single interpreter + test file pair of the matrix.
type Invocation struct {
	Interpreter string
	TestFile    string
}

// ParseList splits a `|` separated step input into its elements.
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(raw, "|") {
		items = append(items, strings.TrimSpace(item))
	}
	return items
}

// NewPlan validates the interpreter and test file lists and resolves the work dir
// into the module search path exported to every invocation.
func NewPlan(workDir, modulePathKey string, interpreters, testFiles []string) (Plan, error) {
	if len(interpreters) == 0 {
		return Plan{}, fmt.Errorf("no interpreters specified")
	}
	if len(testFiles) == 0 {
		return Plan{}, fmt.Errorf("no test files specified")
	}
	for _, interpreter := range interpreters {
		if interpreter == "" {
			return Plan{}, fmt.Errorf("empty element in interpreter list")
		}
	}
	for _, testFile := range testFiles {
		if testFile == "" {
			return Plan{}, fmt.Errorf("empty element in test file list")
		}
	}
	if modulePathKey == "" {
		return Plan{}, fmt.Errorf("module path env key is not specified")
	}

	absWorkDir, err := pathutil.AbsPath(workDir)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to expand work dir (%s): %s", workDir, err)
	}

	if exists, err := pathutil.IsDirExists(absWorkDir); err != nil {
		return Plan{}, fmt.Errorf("failed to check work dir (%s): %s", absWorkDir, err)
	} else if !exists {
		return Plan{}, fmt.Errorf("work dir does not exist: %s", absWorkDir)
	}

	return Plan{
		WorkDir:       absWorkDir,
		ModulePathKey: modulePathKey,
		ModulePath:    absWorkDir,
		Interpreters:  interpreters,
		TestFiles:     testFiles,
	}, nil
}

// Invocations returns the cross product of the interpreter and test file lists,
// outer loop interpreters, inner loop test files, in declared order.
func (p Plan) Invocations() []Invocation {
	var invocations []Invocation
	for _, interpreter := range p.Interpreters {
		for _, testFile := range p.TestFiles {
			invocations = append(invocations, Invocation{
				Interpreter: interpreter,
				TestFile:    testFile,
			})
		}
	}
	return invocations
}

// Env returns the module search path variable in KEY=value form.
func (p Plan) Env() string {
	return p.ModulePathKey + "=" + p.ModulePath
}
