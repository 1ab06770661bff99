package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/services/credentials"
	"github.com/de-tools/alca/pkg/store/blobstore"
	"github.com/de-tools/alca/pkg/store/client"
	"github.com/de-tools/alca/pkg/store/costexport"
	"github.com/de-tools/alca/pkg/store/table"
	"github.com/rs/zerolog"
)

const (
	apiTimeout      = 60 * time.Second
	downloadTimeout = 10 * time.Minute
)

// Factory builds an Aggregator wired to Azure and the workspace APIs.
func Factory(ctx context.Context, cfg domain.Config) (*Aggregator, error) {
	zerolog.Ctx(ctx).Debug().
		Str("auth_mode", string(cfg.AuthMode)).
		Str("storage_account", cfg.StorageAccount).
		Msg("building collaborators")

	cred, err := credentials.NewCredential(cfg.AuthMode, cfg.TenantID)
	if err != nil {
		return nil, err
	}
	tokens := credentials.NewProvider(cred, cfg.TokenScope)

	store := blobstore.NewStore(blobstore.Settings{
		StorageAccount: cfg.StorageAccount,
		ContainerName:  cfg.ContainerName,
	})

	deps := Dependencies{
		Exports:   store,
		Workspace: store,
		Sas: client.NewWorkspaceManager(tokens, client.ManagerSettings{
			BaseURL:       cfg.WsmURL,
			WorkspaceID:   cfg.CurrentWorkspaceID,
			ContainerID:   cfg.ContainerID,
			SasExpiration: time.Duration(cfg.SasExpirationSeconds) * time.Second,
			Timeout:       apiTimeout,
		}),
		Tables:    table.NewLoader(downloadTimeout),
		Directory: client.NewDirectory(tokens, cfg.RawlsURL, apiTimeout),
	}

	if cfg.SubscriptionID != "" && (cfg.CostExportName != "" || cfg.AKSExportName != "") {
		resolver, err := costexport.NewResolver(tokens.Credential(), cfg.SubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("failed to create export definition resolver: %w", err)
		}
		deps.Definitions = resolver
	}

	return New(cfg, deps), nil
}
