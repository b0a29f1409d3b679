package drive

import (
	"fmt"

	"github.com/imroc/req/v3"
)

// APIError is a terminal remote-store failure, reported after the client's
// retry budget is exhausted.
type APIError struct {
	Op         string `json:"-"`
	StatusCode int    `json:"code"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive: %s: %s (%d %s)", e.Op, e.Message, e.StatusCode, e.Status)
}

type apiErrorBody struct {
	Error APIError `json:"error"`
}

// handleAPIError funnels transport errors and API error payloads into a
// single error per operation.
func handleAPIError(resp *req.Response, requestErr error, op string) error {
	if requestErr != nil {
		return fmt.Errorf("drive: %s: %w", op, requestErr)
	}

	// got a response, but the api returned an error
	if resp.IsErrorState() {
		if body, ok := resp.ErrorResult().(*apiErrorBody); ok && body.Error.Message != "" {
			apiErr := body.Error
			apiErr.Op = op
			if apiErr.StatusCode == 0 {
				apiErr.StatusCode = resp.StatusCode
			}
			return &apiErr
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status, Message: resp.String()}
	}

	return nil
}
