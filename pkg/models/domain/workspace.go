package domain

// WorkspaceDirectory maps a workspace id (string form) to its display name.
// It is a snapshot taken once per run.
type WorkspaceDirectory map[string]string
