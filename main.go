package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitrise-io/bitrise/models"
	"github.com/bitrise-io/go-steputils/stepconf"
	"github.com/bitrise-io/go-steputils/tools"
	"github.com/bitrise-io/go-utils/log"
	logV2 "github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-run-test-matrix/junit"
	"github.com/bitrise-steplib/steps-run-test-matrix/matrix"
	"github.com/bitrise-steplib/steps-run-test-matrix/report"
	"github.com/bitrise-steplib/steps-run-test-matrix/runner"
)

// Config ...
type Config struct {
	Interpreters     string `env:"interpreters,required"`
	TestFiles        string `env:"test_files,required"`
	WorkDir          string `env:"work_dir"`
	ModulePathEnvKey string `env:"module_path_env_key"`
	TestResultDir    string `env:"BITRISE_TEST_RESULT_DIR,required"`
	IsCompress       string `env:"is_compress,opt[true,false]"`
	ZipName          string `env:"zip_name"`
	AddonAPIBaseURL  string `env:"addon_api_base_url"`
	AddonAPIToken    string `env:"addon_api_token"`
	AppSlug          string `env:"BITRISE_APP_SLUG"`
	BuildSlug        string `env:"BITRISE_BUILD_SLUG"`
	DebugMode        bool   `env:"verbose,opt[true,false]"`
}

func fail(format string, v ...interface{}) {
	log.Errorf(format, v...)
	os.Exit(1)
}

func main() {
	var config Config
	if err := stepconf.Parse(&config); err != nil {
		fail("Issue with input: %s", err)
	}

	stepconf.Print(config)
	fmt.Println()
	log.SetEnableDebugLog(config.DebugMode)

	workDir := config.WorkDir
	if workDir == "" {
		workDir = "."
	}

	plan, err := matrix.NewPlan(workDir, modulePathEnvKey(config),
		matrix.ParseList(config.Interpreters), matrix.ParseList(config.TestFiles))
	if err != nil {
		fail("Invalid test matrix: %s", err)
	}

	log.Infof("Test matrix")
	log.Printf("- work dir: %s", plan.WorkDir)
	log.Printf("- %s", plan.Env())
	log.Printf("- %d interpreters x %d test files = %d invocations",
		len(plan.Interpreters), len(plan.TestFiles), len(plan.Invocations()))

	logger := logV2.NewLogger()
	logger.EnableDebugLog(config.DebugMode)
	matrixRunner := runner.NewRunner(logger)

	fmt.Println()
	log.Infof("Interpreters")
	matrixRunner.ProbeInterpreters(plan.Interpreters)

	result := matrixRunner.Run(plan)

	fmt.Println()
	log.Infof("Exporting test reports")

	results, err := report.Generate(junit.Build(result), stepInfo())
	if err != nil {
		fail("%s", err)
	}
	if err := results.Save(config.TestResultDir); err != nil {
		fail("%s", err)
	}
	log.Printf("- %d test reports written to %s", len(results), config.TestResultDir)

	if config.IsCompress == "true" {
		zipName := filepath.Base(config.TestResultDir)
		if config.ZipName != "" {
			zipName = config.ZipName
		}

		zipPath, err := report.Compress(config.TestResultDir, zipName)
		if err != nil {
			fail("%s", err)
		}
		log.Printf("- compressed test results: %s", zipPath)
	}

	if err := exportResult(result); err != nil {
		fail("%s", err)
	}

	uploadReports(config, logger)

	fmt.Println()
	if failCount := result.FailCount(); failCount > 0 {
		fail("%d of %d invocations failed", failCount, len(result.Invocations))
	}
	log.Donef("All %d invocations succeeded", len(result.Invocations))
}

// exportResult makes the matrix outcome available to later steps of the workflow.
func exportResult(result runner.MatrixResult) error {
	status := "success"
	if result.FailCount() > 0 {
		status = "failed"
	}

	exports := map[string]string{
		"RUN_TEST_MATRIX_RESULT":      status,
		"RUN_TEST_MATRIX_TOTAL_COUNT": fmt.Sprintf("%d", len(result.Invocations)),
		"RUN_TEST_MATRIX_FAIL_COUNT":  fmt.Sprintf("%d", result.FailCount()),
	}
	for key, value := range exports {
		if err := tools.ExportEnvironmentWithEnvman(key, value); err != nil {
			return fmt.Errorf("failed to export %s, error: %s", key, err)
		}
		log.Printf("- %s: %s", key, value)
	}
	return nil
}

// uploadReports sends the written reports to the test addon API. Upload problems do not
// change the step outcome, the reports stay available on disk either way.
func uploadReports(config Config, logger logV2.Logger) {
	if config.AddonAPIToken == "" {
		return
	}

	fmt.Println()
	log.Infof("Upload test reports")

	if err := uploadCollectedReports(config, logger); err != nil {
		log.Warnf("Failed to upload test reports: %s", err)
		return
	}
	log.Donef("Success")
}

func uploadCollectedReports(config Config, logger logV2.Logger) error {
	if config.AddonAPIBaseURL == "" {
		return fmt.Errorf("addon_api_token is set, but addon_api_base_url is not specified")
	}

	results, err := report.Collect(config.TestResultDir, logger)
	if err != nil {
		return fmt.Errorf("failed to collect test reports: %s", err)
	}

	log.Printf("- uploading (%d) test reports", len(results))
	return results.Upload(config.AddonAPIToken, config.AddonAPIBaseURL, config.AppSlug, config.BuildSlug, logger)
}

// modulePathEnvKey returns the name of the module search path variable set for the
// child processes, PYTHONPATH unless configured otherwise.
func modulePathEnvKey(config Config) string {
	if config.ModulePathEnvKey == "" {
		return "PYTHONPATH"
	}
	return config.ModulePathEnvKey
}

func stepInfo() models.TestResultStepInfo {
	return models.TestResultStepInfo{
		ID:      "run-test-matrix",
		Title:   "Run test matrix",
		Version: os.Getenv("BITRISE_STEP_VERSION"),
	}
}
