package client

import (
	"context"
	"net/http"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

type workspaceListing struct {
	Workspace struct {
		WorkspaceID string `json:"workspaceId"`
		Name        string `json:"name"`
	} `json:"workspace"`
}

// Directory lists the workspaces visible to the caller.
type Directory struct {
	http   *resty.Client
	tokens TokenSource
}

func NewDirectory(tokens TokenSource, baseURL string, timeout time.Duration) *Directory {
	httpClient := LogRequests(resty.New()).
		SetBaseURL(baseURL).
		SetHeader("accept", "application/json")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}

	return &Directory{
		http:   httpClient,
		tokens: tokens,
	}
}

// ListWorkspaces returns a snapshot of workspace id to name.
func (d *Directory) ListWorkspaces(ctx context.Context) (domain.WorkspaceDirectory, error) {
	logger := zerolog.Ctx(ctx)

	token, err := d.tokens.Token(ctx)
	if err != nil {
		return nil, &domain.AuthorizationError{Resource: "workspace directory", Err: err}
	}

	var listing []workspaceListing
	resp, err := d.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("fields", "workspace.name,workspace.workspaceId").
		SetResult(&listing).
		Get("/api/workspaces")
	if err != nil {
		logger.Warn().Err(err).Msg("failed to list workspaces")
		return nil, &domain.DirectoryError{Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode()).Str("body", resp.String()).Msg("failed to list workspaces")
		return nil, &domain.DirectoryError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	directory := make(domain.WorkspaceDirectory, len(listing))
	for _, ws := range listing {
		directory[ws.Workspace.WorkspaceID] = ws.Workspace.Name
	}
	return directory, nil
}
