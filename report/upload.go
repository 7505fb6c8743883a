package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bitrise-io/bitrise/models"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// maxTotalXMLSize limits the total size of all XML files uploaded in a single run
const maxTotalXMLSize = 100 * 1024 * 1024 // 100 MiB

// FileInfo ...
type FileInfo struct {
	FileName string `json:"filename"`
	FileSize int    `json:"filesize"`
}

// UploadURL ...
type UploadURL struct {
	FileName string `json:"filename"`
	URL      string `json:"upload_url"`
}

// UploadRequest ...
type UploadRequest struct {
	Name string                    `json:"name"`
	Step models.TestResultStepInfo `json:"step_info"`
	FileInfo
}

// UploadResponse ...
type UploadResponse struct {
	ID string `json:"id"`
	UploadURL
}

func httpCall(apiToken, method, url string, input io.Reader, output interface{}, logger log.Logger) error {
	if apiToken != "" {
		url = url + "/" + apiToken
	}
	req, err := retryablehttp.NewRequest(method, url, input)
	if err != nil {
		return err
	}

	client := retryhttp.NewClient(logger)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warnf("Failed to close body: %s", err)
		}
	}()

	if resp.StatusCode < 200 || 299 < resp.StatusCode {
		bodyData, err := io.ReadAll(resp.Body)
		if err != nil {
			logger.Warnf("Failed to read response: %s", err)
			return fmt.Errorf("unsuccessful status code: %d", resp.StatusCode)
		}
		return fmt.Errorf("unsuccessful status code: %d, response: %s", resp.StatusCode, bodyData)
	}

	if output != nil {
		return json.NewDecoder(resp.Body).Decode(&output)
	}
	return nil
}

// Upload sends every report to the test addon API: an init call to get the upload URL,
// a PUT with the XML content, then a finalising PATCH.
func (results Results) Upload(apiToken, endpointBaseURL, appSlug, buildSlug string, logger log.Logger) error {
	if results.totalXMLSize() > maxTotalXMLSize {
		return fmt.Errorf("the total size of the test report XML files (%d MiB) exceeds the maximum allowed size of 100 MiB", results.totalXMLSize()/1024/1024)
	}

	for _, result := range results {
		logger.Printf("Uploading: %s", result.Name)

		uploadReq := UploadRequest{
			FileInfo: FileInfo{
				FileName: resultFileName,
				FileSize: len(result.XMLContent),
			},
			Name: result.Name,
			Step: result.StepInfo,
		}

		uploadRequestBodyData, err := json.Marshal(uploadReq)
		if err != nil {
			return fmt.Errorf("failed to json encode upload request: %w", err)
		}

		var (
			uploadResponse   UploadResponse
			uploadRequestURL = fmt.Sprintf("%s/apps/%s/builds/%s/test_reports", endpointBaseURL, appSlug, buildSlug)
		)
		if err := httpCall(apiToken, http.MethodPost, uploadRequestURL, bytes.NewReader(uploadRequestBodyData), &uploadResponse, logger); err != nil {
			return fmt.Errorf("failed to initialise test report: %w", err)
		}

		if err := httpCall("", http.MethodPut, uploadResponse.URL, bytes.NewReader(result.XMLContent), nil, logger); err != nil {
			return fmt.Errorf("failed to upload test report xml: %w", err)
		}

		uploadPatchURL := fmt.Sprintf("%s/apps/%s/builds/%s/test_reports/%s", endpointBaseURL, appSlug, buildSlug, uploadResponse.ID)
		if err := httpCall(apiToken, http.MethodPatch, uploadPatchURL, strings.NewReader(`{"uploaded":true}`), nil, logger); err != nil {
			return fmt.Errorf("failed to finalise test report: %w", err)
		}
	}

	return nil
}

func (results Results) totalXMLSize() int {
	totalSize := 0
	for _, result := range results {
		totalSize += len(result.XMLContent)
	}
	return totalSize
}
