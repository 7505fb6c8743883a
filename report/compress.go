package report

import (
	"fmt"
	"path/filepath"

	"github.com/bitrise-io/go-utils/pathutil"
	"github.com/bitrise-io/go-utils/ziputil"
)

// Compress zips the content of the test result dir into a temp location and returns
// the path of the archive.
func Compress(dir, zipName string) (string, error) {
	tmpDir, err := pathutil.NormalizedOSTempDirPath("__run-test-matrix__")
	if err != nil {
		return "", fmt.Errorf("failed to create tmp dir: %s", err)
	}

	zipPath := filepath.Join(tmpDir, zipName+".zip")
	if err := ziputil.ZipDir(dir, zipPath, true); err != nil {
		return "", fmt.Errorf("failed to zip test result dir: %s", err)
	}

	return zipPath, nil
}
