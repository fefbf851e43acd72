package release

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/go-github/v66/github"
	"github.com/stretchr/testify/assert"

	perrors "github.com/Staticpast/WeatherVoting/errors"
)

func TestClassifyAPIError(t *testing.T) {
	apiErr := func(status int) error {
		req := &http.Request{Method: http.MethodPost, URL: &url.URL{Scheme: "https", Host: "api.github.com", Path: "/repos/Staticpast/WeatherVoting/releases"}}
		return &github.ErrorResponse{Response: &http.Response{StatusCode: status, Request: req}, Message: http.StatusText(status)}
	}

	tests := []struct {
		name string
		err  error
		code perrors.ErrorCode
	}{
		{name: "unauthorized", err: apiErr(http.StatusUnauthorized), code: perrors.CodeReleaseAuth},
		{name: "forbidden", err: apiErr(http.StatusForbidden), code: perrors.CodeReleaseAuth},
		{name: "server error", err: apiErr(http.StatusBadGateway), code: perrors.CodePublishFailed},
		{name: "transport", err: errors.New("connection reset"), code: perrors.CodePublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyAPIError(tt.err, "create release v1.3.0")
			assert.Equal(t, tt.code, perrors.CodeOf(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "create release v1.3.0")
		})
	}
}
