package report

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bitrise-io/bitrise/models"
	"github.com/bitrise-io/go-utils/fileutil"
	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-run-test-matrix/junit"
	"github.com/pkg/errors"
)

const (
	resultFileName   = "result.xml"
	testInfoFileName = "test-info.json"
	stepInfoFileName = "step-info.json"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Result is a named test report: the JUnit content of one interpreter's suite plus
// the info of the step that produced it.
type Result struct {
	Name       string
	XMLContent []byte
	StepInfo   models.TestResultStepInfo
}

// Results ...
type Results []Result

type testInfo struct {
	Name string `json:"test-name"`
}

// Generate renders one Result per test suite of the report, the suite (interpreter)
// name becoming the report name.
func Generate(report junit.XML, stepInfo models.TestResultStepInfo) (Results, error) {
	var results Results
	for _, suite := range report.TestSuites {
		xmlData, err := xml.MarshalIndent(junit.XML{TestSuites: []junit.TestSuite{suite}}, "", " ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal test suite (%s): %s", suite.Name, err)
		}

		results = append(results, Result{
			Name:       suite.Name,
			XMLContent: append([]byte(xmlHeader), xmlData...),
			StepInfo:   stepInfo,
		})
	}
	return results, nil
}

// Save writes each result into its own subdirectory of dir:
//
//	dir
//	└── <result name>
//	    ├── result.xml
//	    ├── test-info.json
//	    └── step-info.json
func (results Results) Save(dir string) error {
	for _, result := range results {
		resultDir := filepath.Join(dir, result.Name)
		if err := os.MkdirAll(resultDir, 0755); err != nil {
			return fmt.Errorf("failed to create result dir (%s): %s", resultDir, err)
		}

		if err := fileutil.WriteBytesToFile(filepath.Join(resultDir, resultFileName), result.XMLContent); err != nil {
			return fmt.Errorf("failed to write test report (%s): %s", result.Name, err)
		}

		testInfoData, err := json.Marshal(testInfo{Name: result.Name})
		if err != nil {
			return fmt.Errorf("failed to marshal test info (%s): %s", result.Name, err)
		}
		if err := fileutil.WriteBytesToFile(filepath.Join(resultDir, testInfoFileName), testInfoData); err != nil {
			return fmt.Errorf("failed to write test info (%s): %s", result.Name, err)
		}

		stepInfoData, err := json.Marshal(result.StepInfo)
		if err != nil {
			return fmt.Errorf("failed to marshal step info (%s): %s", result.Name, err)
		}
		if err := fileutil.WriteBytesToFile(filepath.Join(resultDir, stepInfoFileName), stepInfoData); err != nil {
			return fmt.Errorf("failed to write step info (%s): %s", result.Name, err)
		}
	}
	return nil
}

// Collect walks the layout written by Save and reads the results back. Directories
// without the expected files are logged and skipped, a malformed report is an error.
func Collect(dir string, logger log.Logger) (Results, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test result dir (%s): %s", dir, err)
	}

	var results Results
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		resultDir := filepath.Join(dir, entry.Name())

		testInfoPth := filepath.Join(resultDir, testInfoFileName)
		if exists, err := pathutil.IsPathExists(testInfoPth); err != nil {
			return nil, fmt.Errorf("failed to check test info in dir (%s): %s", resultDir, err)
		} else if !exists {
			logger.Debugf("No %s in %s, skipping", testInfoFileName, resultDir)
			continue
		}

		testInfoData, err := fileutil.ReadBytesFromFile(testInfoPth)
		if err != nil {
			return nil, fmt.Errorf("failed to read test info in dir (%s): %s", resultDir, err)
		}
		var info testInfo
		if err := json.Unmarshal(testInfoData, &info); err != nil {
			return nil, errors.Wrapf(err, "failed to parse test info in dir (%s)", resultDir)
		}

		var stepInfo models.TestResultStepInfo
		stepInfoData, err := fileutil.ReadBytesFromFile(filepath.Join(resultDir, stepInfoFileName))
		if err != nil {
			logger.Warnf("Failed to read step info in dir (%s): %s", resultDir, err)
			continue
		}
		if err := json.Unmarshal(stepInfoData, &stepInfo); err != nil {
			return nil, errors.Wrapf(err, "failed to parse step info in dir (%s)", resultDir)
		}

		xmlContent, err := fileutil.ReadBytesFromFile(filepath.Join(resultDir, resultFileName))
		if err != nil {
			logger.Warnf("Failed to read test report in dir (%s): %s", resultDir, err)
			continue
		}
		if _, err := junit.Parse(xmlContent); err != nil {
			return nil, errors.Wrapf(err, "invalid test report in dir (%s)", resultDir)
		}

		results = append(results, Result{
			Name:       info.Name,
			XMLContent: xmlContent,
			StepInfo:   stepInfo,
		})
	}

	return results, nil
}
