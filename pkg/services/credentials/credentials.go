package credentials

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/rs/zerolog"
)

// DefaultScope is the management-plane audience accepted by the workspace APIs.
const DefaultScope = "https://management.core.windows.net//.default"

// Provider hands out bearer tokens for a single scope. It satisfies client.TokenSource.
type Provider struct {
	credential azcore.TokenCredential
	scope      string
}

// NewCredential builds the azidentity credential selected by mode.
func NewCredential(mode domain.AuthMode, tenantID string) (azcore.TokenCredential, error) {
	switch mode {
	case domain.AuthModeManagedIdentity:
		cred, err := azidentity.NewManagedIdentityCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create managed identity credential: %w", err)
		}
		return cred, nil
	case domain.AuthModeCLI:
		cred, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: tenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure CLI credential: %w", err)
		}
		return cred, nil
	case domain.AuthModeDefault, "":
		cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
			TenantID: tenantID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create default Azure credential: %w", err)
		}
		return cred, nil
	default:
		return nil, &domain.ConfigError{Field: "auth_mode", Message: fmt.Sprintf("unsupported value %q", mode)}
	}
}

func NewProvider(credential azcore.TokenCredential, scope string) *Provider {
	if scope == "" {
		scope = DefaultScope
	}
	return &Provider{credential: credential, scope: scope}
}

// Credential exposes the underlying credential for the Azure SDK clients.
func (p *Provider) Credential() azcore.TokenCredential {
	return p.credential
}

func (p *Provider) Token(ctx context.Context) (string, error) {
	token, err := p.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{p.scope}})
	if err != nil {
		return "", &domain.AuthorizationError{Resource: p.scope, Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Str("scope", p.scope).
		Time("expires_on", token.ExpiresOn).
		Msg("acquired access token")

	return token.Token, nil
}
