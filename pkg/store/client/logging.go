package client

import (
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// LogRequests logs every completed request with the logger of its context.
// Only the path is logged; query strings can carry SAS signatures.
func LogRequests(httpClient *resty.Client) *resty.Client {
	return httpClient.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		req := resp.Request
		var path string
		if req.RawRequest != nil && req.RawRequest.URL != nil {
			path = req.RawRequest.URL.Path
		}

		zerolog.Ctx(req.Context()).Debug().
			Str("method", req.Method).
			Str("path", path).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("http request")
		return nil
	})
}
