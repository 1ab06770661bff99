package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TokenSource provides the bearer token sent to the workspace APIs.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type SasTokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ManagerSettings address the controlled storage container of the current workspace.
type ManagerSettings struct {
	BaseURL       string
	WorkspaceID   string
	ContainerID   string
	SasExpiration time.Duration
	Timeout       time.Duration
}

// WorkspaceManager mints SAS credentials for the working storage container.
type WorkspaceManager struct {
	http     *resty.Client
	tokens   TokenSource
	settings ManagerSettings
}

func NewWorkspaceManager(tokens TokenSource, settings ManagerSettings) *WorkspaceManager {
	httpClient := LogRequests(resty.New()).
		SetBaseURL(settings.BaseURL).
		SetHeader("accept", "application/json")
	if settings.Timeout > 0 {
		httpClient.SetTimeout(settings.Timeout)
	}

	return &WorkspaceManager{
		http:     httpClient,
		tokens:   tokens,
		settings: settings,
	}
}

func (m *WorkspaceManager) sasPath() string {
	return fmt.Sprintf("/api/workspaces/v1/%s/resources/controlled/azure/storageContainer/%s/getSasToken",
		m.settings.WorkspaceID, m.settings.ContainerID)
}

// GetSasToken returns a container-scoped SAS token.
func (m *WorkspaceManager) GetSasToken(ctx context.Context) (string, error) {
	resp, err := m.requestSas(ctx, "")
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

// GetSasURL returns a SAS-enabled URL for a single blob in the working container.
func (m *WorkspaceManager) GetSasURL(ctx context.Context, blobName string) (string, error) {
	resp, err := m.requestSas(ctx, blobName)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (m *WorkspaceManager) requestSas(ctx context.Context, blobName string) (*SasTokenResponse, error) {
	logger := zerolog.Ctx(ctx)
	resource := m.settings.ContainerID
	if blobName != "" {
		resource = blobName
	}

	token, err := m.tokens.Token(ctx)
	if err != nil {
		return nil, &domain.AuthorizationError{Resource: resource, Err: err}
	}

	var result SasTokenResponse
	req := m.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("sasExpirationDuration", strconv.Itoa(int(m.settings.SasExpiration.Seconds()))).
		SetResult(&result)
	if blobName != "" {
		req.SetQueryParam("sasBlobName", blobName)
	}

	resp, err := req.Post(m.sasPath())
	if err != nil {
		logger.Warn().Err(err).Str("resource", resource).Msg("failed to request sas token")
		return nil, &domain.AuthorizationError{Resource: resource, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		logger.Warn().
			Int("status", resp.StatusCode()).
			Str("resource", resource).
			Str("body", resp.String()).
			Msg("failed to retrieve sas token")
		return nil, &domain.AuthorizationError{
			Resource:   resource,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	return &result, nil
}
