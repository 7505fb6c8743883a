package junit

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// Parse reads a JUnit document from data. Both a <testsuites> root and a bare
// <testsuite> root are accepted, some report producers emit the latter.
func Parse(data []byte) (XML, error) {
	var report XML
	reportError := xml.Unmarshal(data, &report)
	if reportError == nil {
		return report, nil
	}

	var suite TestSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return XML{}, errors.Wrap(err, reportError.Error())
	}

	return XML{TestSuites: []TestSuite{suite}}, nil
}
