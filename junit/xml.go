package junit

import (
	"encoding/xml"
	"reflect"
)

// XML ...
type XML struct {
	XMLName    xml.Name    `xml:"testsuites"`
	TestSuites []TestSuite `xml:"testsuite"`
}

// TestSuite ...
type TestSuite struct {
	XMLName   xml.Name   `xml:"testsuite"`
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr"`
	Time      float64    `xml:"time,attr"`
	TestCases []TestCase `xml:"testcase"`
}

// TestCase ...
type TestCase struct {
	XMLName   xml.Name `xml:"testcase"`
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Time      float64  `xml:"time,attr"`
	Failure   string   `xml:"failure,omitempty"`
	Error     *Error   `xml:"error,omitempty"`
	SystemErr string   `xml:"system-err,omitempty"`
}

// Error ...
type Error struct {
	XMLName xml.Name `xml:"error,omitempty"`
	Message string   `xml:"message,attr,omitempty"`
	Value   string   `xml:",chardata"`
}

// Equal reports whether the two documents hold the same test suites, in any order.
// Suites are compared wholly, including their test case order.
func (x XML) Equal(other XML) bool {
	if x.XMLName != other.XMLName {
		return false
	}
	if len(x.TestSuites) != len(other.TestSuites) {
		return false
	}

	remaining := make([]TestSuite, len(other.TestSuites))
	copy(remaining, other.TestSuites)

	for _, suite := range x.TestSuites {
		found := false
		for j, candidate := range remaining {
			if reflect.DeepEqual(suite, candidate) {
				remaining = append(remaining[:j], remaining[j+1:]...)
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
