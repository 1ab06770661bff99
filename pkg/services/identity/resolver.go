package identity

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// ContainerPrefix marks storage containers owned by a workspace.
	ContainerPrefix = "sc-"
	WorkspaceTagKey = "workspaceId"
	SharedSuffix    = " (shared)"

	uuidLength = 36
)

// ExtractWorkspaceID parses the workspace id carried in the last 36 characters of a
// workspace container name. Any other container yields false.
func ExtractWorkspaceID(containerName string) (uuid.UUID, bool) {
	if !strings.HasPrefix(containerName, ContainerPrefix) {
		return uuid.Nil, false
	}

	tail := containerName
	if len(tail) > uuidLength {
		tail = tail[len(tail)-uuidLength:]
	}

	id, err := uuid.Parse(tail)
	if err != nil || len(tail) != uuidLength {
		return uuid.Nil, false
	}
	return id, true
}

// ExtractWorkspaceTag reads the workspaceId entry of a JSON tag blob. Unparsable tags are
// logged and treated as absent.
func ExtractWorkspaceTag(ctx context.Context, tags *string) (string, bool) {
	if tags == nil || *tags == "" {
		return "", false
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*tags), &parsed); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(&domain.TagParseError{Tags: *tags, Err: err}).
			Msg("error parsing tags as json")
		return "", false
	}

	raw, ok := parsed[WorkspaceTagKey]
	if !ok || string(raw) == "null" {
		return "", false
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		// non-string tag values keep their JSON text
		return string(raw), true
	}
	return value, true
}

// ContainerName returns the first path segment of an inventory blob name.
func ContainerName(blobName string) string {
	name, _, _ := strings.Cut(blobName, "/")
	return name
}

// ResolveNames looks every id up in the directory. Unknown ids are left out.
func ResolveNames(ids []string, directory domain.WorkspaceDirectory) map[string]string {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := directory[id]; ok {
			names[id] = name
		}
	}
	return names
}

// FirstNonEmpty returns *first unless first is nil. A present zero value is returned as is.
func FirstNonEmpty[T any](first *T, fallback T) T {
	if first == nil {
		return fallback
	}
	return *first
}

// StorageKey groups storage by workspace name, falling back to the container name.
func StorageKey(workspaceName *string, containerName string) string {
	return FirstNonEmpty(workspaceName, containerName)
}

// CostKey groups costs by workspace name, falling back to a shared meter category bucket.
func CostKey(workspaceName *string, meterCategory string) string {
	return FirstNonEmpty(workspaceName, meterCategory+SharedSuffix)
}
