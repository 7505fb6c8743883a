package junit

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("testsuites root", func(t *testing.T) {
		data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<testsuites>
 <testsuite name="python2.4" tests="2" failures="1" errors="0" time="3">
  <testcase name="test_validation.py" classname="python2.4" time="2"></testcase>
  <testcase name="test_conversion.py" classname="python2.4" time="1"><failure>boom</failure></testcase>
 </testsuite>
</testsuites>`)

		report, err := Parse(data)
		require.NoError(t, err)
		require.Len(t, report.TestSuites, 1)

		suite := report.TestSuites[0]
		require.Equal(t, "python2.4", suite.Name)
		require.Equal(t, 2, suite.Tests)
		require.Equal(t, 1, suite.Failures)
		require.Len(t, suite.TestCases, 2)
		require.Equal(t, "boom", suite.TestCases[1].Failure)
	})

	t.Run("bare testsuite root", func(t *testing.T) {
		data := []byte(`<testsuite name="python3.0" tests="1" failures="0" errors="0" time="1">
 <testcase name="test_typecheck.py" classname="python3.0" time="1"></testcase>
</testsuite>`)

		report, err := Parse(data)
		require.NoError(t, err)
		require.Len(t, report.TestSuites, 1)
		require.Equal(t, "python3.0", report.TestSuites[0].Name)
	})

	t.Run("invalid content", func(t *testing.T) {
		_, err := Parse([]byte("not xml at all"))
		require.Error(t, err)
	})
}

func TestXML_Equal(t *testing.T) {
	suiteA := TestSuite{
		Name:  "python2.4",
		Tests: 2,
		TestCases: []TestCase{
			{Name: "a.py", ClassName: "python2.4"},
			{Name: "b.py", ClassName: "python2.4", Failure: "boom"},
		},
	}
	suiteB := TestSuite{
		Name:  "python3.0",
		Tests: 1,
		TestCases: []TestCase{
			{Name: "a.py", ClassName: "python3.0"},
		},
	}

	tests := []struct {
		name string
		a    XML
		b    XML
		want bool
	}{
		{
			name: "empty documents",
			a:    XML{},
			b:    XML{},
			want: true,
		},
		{
			name: "suite order does not matter",
			a:    XML{TestSuites: []TestSuite{suiteA, suiteB}},
			b:    XML{TestSuites: []TestSuite{suiteB, suiteA}},
			want: true,
		},
		{
			name: "missing suite",
			a:    XML{TestSuites: []TestSuite{suiteA, suiteB}},
			b:    XML{TestSuites: []TestSuite{suiteA}},
			want: false,
		},
		{
			name: "different failure message",
			a:    XML{TestSuites: []TestSuite{suiteA}},
			b: XML{TestSuites: []TestSuite{{
				Name:  "python2.4",
				Tests: 2,
				TestCases: []TestCase{
					{Name: "a.py", ClassName: "python2.4"},
					{Name: "b.py", ClassName: "python2.4", Failure: "other"},
				},
			}}},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v, diff: %s", got, tt.want, cmp.Diff(tt.a, tt.b))
			}
		})
	}
}
