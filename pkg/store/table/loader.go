package table

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/store/client"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const utf8BOM = "\uFEFF"

// Loader fetches CSV exports over HTTP and parses them into tables.
type Loader struct {
	http *resty.Client
}

func NewLoader(timeout time.Duration) *Loader {
	httpClient := client.LogRequests(resty.New())
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Loader{http: httpClient}
}

// EscapeURL escapes the spaces that SAS URLs carry unencoded in blob names.
func EscapeURL(rawURL string) string {
	return strings.ReplaceAll(rawURL, " ", "%20")
}

// Load downloads the CSV at url. The first record is the header.
func (l *Loader) Load(ctx context.Context, url string) (domain.Table, error) {
	logger := zerolog.Ctx(ctx)
	source := redact(url)

	resp, err := l.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(EscapeURL(url))
	if err != nil {
		return domain.Table{}, &domain.DownloadError{URL: source, Err: err}
	}

	body := resp.RawBody()
	defer func() {
		if err := body.Close(); err != nil {
			logger.Warn().Err(err).Str("url", source).Msg("failed to close response body")
		}
	}()

	if resp.StatusCode() != http.StatusOK {
		return domain.Table{}, &domain.DownloadError{URL: source, StatusCode: resp.StatusCode()}
	}

	table, err := Parse(source, body)
	if err != nil {
		return domain.Table{}, err
	}

	logger.Debug().Str("url", source).Int("rows", len(table.Records)).Msg("loaded table")
	return table, nil
}

// LoadManifest reads a blob inventory manifest and returns the inventory parts it lists.
func (l *Loader) LoadManifest(ctx context.Context, url string) (domain.Manifest, error) {
	source := redact(url)

	resp, err := l.http.R().
		SetContext(ctx).
		Get(EscapeURL(url))
	if err != nil {
		return domain.Manifest{}, &domain.ManifestUnreadableError{Manifest: source, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return domain.Manifest{}, &domain.ManifestUnreadableError{
			Manifest:   source,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(resp.Body(), &manifest); err != nil {
		return domain.Manifest{}, &domain.ManifestUnreadableError{Manifest: source, Err: err}
	}

	zerolog.Ctx(ctx).Info().
		Str("manifest", source).
		Strs("blobs", manifest.Blobs()).
		Msg("found storage inventory parts")

	return manifest, nil
}

// Parse reads a CSV document. Short or long records are kept; lookups by column tolerate them.
func Parse(source string, r io.Reader) (domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{Source: source}, nil
	}
	if err != nil {
		return domain.Table{}, &domain.MalformedExportError{Source: source, Line: 1, Err: err}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	}

	records, err := reader.ReadAll()
	if err != nil {
		return domain.Table{}, &domain.MalformedExportError{Source: source, Err: err}
	}

	return domain.Table{Source: source, Columns: columns, Records: records}, nil
}

// redact drops the SAS query from a URL before it reaches logs or errors.
func redact(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
