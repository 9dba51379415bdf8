package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ResponseError describes a non-2xx answer from an upstream service.
type ResponseError struct {
	Upstream    string
	Status      int
	Code        string
	Description string
}

func (e *ResponseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned status %d: %s: %s", e.Upstream, e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Upstream, e.Status, e.Description)
}

// oauthErrorBody is the RFC 6749 error shape most identity providers use.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// ParseResponseError consumes and closes resp.Body and returns a
// *ResponseError. Call it only for non-2xx responses.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", upstream, resp.StatusCode, err)
	}

	rerr := &ResponseError{Upstream: upstream, Status: resp.StatusCode}

	var parsed oauthErrorBody
	if json.Unmarshal(body, &parsed) == nil && (parsed.Error != "" || parsed.Msg != "") {
		rerr.Code = parsed.Error
		rerr.Description = parsed.ErrorDescription
		if rerr.Description == "" {
			rerr.Description = parsed.Msg
		}
		return rerr
	}

	rerr.Description = string(body)
	return rerr
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
