package costexport

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/costmanagement/armcostmanagement"
	"github.com/rs/zerolog"
)

// Resolver finds the storage directory a scheduled Cost Management export delivers into.
type Resolver interface {
	ExportDirectory(ctx context.Context, exportName string) (string, error)
}

type resolver struct {
	factory *armcostmanagement.ClientFactory
	scope   string
}

func NewResolver(credential azcore.TokenCredential, subscriptionID string) (Resolver, error) {
	factory, err := armcostmanagement.NewClientFactory(credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost management client factory: %w", err)
	}

	return &resolver{
		factory: factory,
		scope:   fmt.Sprintf("/subscriptions/%s", subscriptionID),
	}, nil
}

func (r *resolver) ExportDirectory(ctx context.Context, exportName string) (string, error) {
	resp, err := r.factory.NewExportsClient().Get(ctx, r.scope, exportName, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get export definition %s: %w", exportName, err)
	}

	directory, err := DeliveryDirectory(resp.Export)
	if err != nil {
		return "", err
	}

	zerolog.Ctx(ctx).Info().
		Str("export", exportName).
		Str("directory", directory).
		Msg("resolved export directory from cost management")

	return directory, nil
}

// DeliveryDirectory is RootFolderPath/<export name>, the prefix Azure writes each run under.
func DeliveryDirectory(export armcostmanagement.Export) (string, error) {
	if export.Name == nil || *export.Name == "" {
		return "", fmt.Errorf("export definition has no name")
	}
	if export.Properties == nil ||
		export.Properties.DeliveryInfo == nil ||
		export.Properties.DeliveryInfo.Destination == nil {
		return "", fmt.Errorf("export %s has no delivery destination", *export.Name)
	}

	var root string
	if p := export.Properties.DeliveryInfo.Destination.RootFolderPath; p != nil {
		root = strings.Trim(*p, "/")
	}
	return path.Join(root, *export.Name), nil
}
