package domain

import (
	"errors"
	"fmt"
)

// Process exit codes, one per failing phase.
const (
	ExitOK            = 0
	ExitUnknown       = 1
	ExitConfig        = 2
	ExitNoExports     = 3
	ExitAuthorization = 4
	ExitRemoteCopy    = 5
	ExitManifest      = 6
	ExitDownload      = 7
	ExitDirectory     = 8
)

type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Message
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// EmptyInputError is returned when there is nothing to select an export from.
type EmptyInputError struct {
	Source string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("no exports found in %s", e.Source)
}

type ListingError struct {
	Source string
	Err    error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("failed to list blobs in %s: %v", e.Source, e.Err)
}

func (e *ListingError) Unwrap() error { return e.Err }

// AuthorizationError covers failures to obtain a token, a SAS token or a SAS URL.
type AuthorizationError struct {
	Resource   string
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthorizationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("authorization failed for %s: %v", e.Resource, e.Err)
	default:
		return fmt.Sprintf("authorization failed for %s: status %d: %s", e.Resource, e.StatusCode, e.Body)
	}
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

type RemoteCopyError struct {
	Source      string
	Destination string
	Err         error
}

func (e *RemoteCopyError) Error() string {
	return fmt.Sprintf("failed to copy %s to %s: %v", e.Source, e.Destination, e.Err)
}

func (e *RemoteCopyError) Unwrap() error { return e.Err }

type ManifestUnreadableError struct {
	Manifest   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ManifestUnreadableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to read manifest %s: %v", e.Manifest, e.Err)
	}
	return fmt.Sprintf("failed to read manifest %s: status %d: %s", e.Manifest, e.StatusCode, e.Body)
}

func (e *ManifestUnreadableError) Unwrap() error { return e.Err }

type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load table from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to load table from %s: status %d", e.URL, e.StatusCode)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// MalformedExportError is returned when an export lacks a column or holds an unparsable value.
type MalformedExportError struct {
	Source string
	Line   int
	Err    error
}

func (e *MalformedExportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed export %s at line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("malformed export %s: %v", e.Source, e.Err)
}

func (e *MalformedExportError) Unwrap() error { return e.Err }

type DirectoryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DirectoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to list workspaces: %v", e.Err)
	}
	return fmt.Sprintf("failed to list workspaces: status %d: %s", e.StatusCode, e.Body)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// TagParseError is never fatal; it is logged and the row is treated as unattributed.
type TagParseError struct {
	Tags string
	Err  error
}

func (e *TagParseError) Error() string {
	return fmt.Sprintf("failed to parse tags %q: %v", e.Tags, e.Err)
}

func (e *TagParseError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a run to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		configErr    *ConfigError
		emptyErr     *EmptyInputError
		listingErr   *ListingError
		authErr      *AuthorizationError
		copyErr      *RemoteCopyError
		manifestErr  *ManifestUnreadableError
		downloadErr  *DownloadError
		malformedErr *MalformedExportError
		directoryErr *DirectoryError
	)

	switch {
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &emptyErr), errors.As(err, &listingErr):
		return ExitNoExports
	case errors.As(err, &authErr):
		return ExitAuthorization
	case errors.As(err, &copyErr):
		return ExitRemoteCopy
	case errors.As(err, &manifestErr):
		return ExitManifest
	case errors.As(err, &downloadErr), errors.As(err, &malformedErr):
		return ExitDownload
	case errors.As(err, &directoryErr):
		return ExitDirectory
	default:
		return ExitUnknown
	}
}
