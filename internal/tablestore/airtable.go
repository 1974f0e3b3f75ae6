package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"contentkit/internal/logging"
)

const airtablePageSize = 100

// HTTPDoer describes the HTTP client used by the Airtable store.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Airtable reads tables through the Airtable REST API.
type Airtable struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
	logger  *slog.Logger
}

// NewAirtable constructs an HTTP-backed store.
func NewAirtable(baseURL, apiKey string, client HTTPDoer, logger *slog.Logger) *Airtable {
	if client == nil {
		client = http.DefaultClient
	}
	return &Airtable{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
		logger:  logging.NewComponentLogger(logger, "tablestore"),
	}
}

type airtablePage struct {
	Records []struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	} `json:"records"`
	Offset string `json:"offset"`
}

type airtableError struct {
	Error json.RawMessage `json:"error"`
}

// Rows fetches every page of the table.
func (a *Airtable) Rows(ctx context.Context, baseID, table string) ([]Row, error) {
	var (
		rows   []Row
		offset string
		pages  int
	)
	for {
		page, err := a.fetchPage(ctx, baseID, table, offset)
		if err != nil {
			return nil, err
		}
		pages++
		for _, record := range page.Records {
			rows = append(rows, Row{ID: record.ID, Fields: record.Fields})
		}
		if page.Offset == "" {
			break
		}
		offset = page.Offset
	}
	a.logger.Debug("airtable table fetched",
		logging.String("base", baseID),
		logging.String("table", table),
		logging.Int("rows", len(rows)),
		logging.Int("pages", pages),
	)
	return rows, nil
}

func (a *Airtable) fetchPage(ctx context.Context, baseID, table, offset string) (*airtablePage, error) {
	query := url.Values{}
	query.Set("pageSize", fmt.Sprint(airtablePageSize))
	if offset != "" {
		query.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/v0/%s/%s?%s", a.baseURL, url.PathEscape(baseID), url.PathEscape(table), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", baseID, table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s response: %w", baseID, table, err)
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		if notFound := classifyAirtableMiss(resp.StatusCode, body, baseID, table); notFound != nil {
			return nil, notFound
		}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("airtable %s/%s returned %d: %s", baseID, table, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page airtablePage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode %s/%s page: %w", baseID, table, err)
	}
	return &page, nil
}

// classifyAirtableMiss maps Airtable error codes onto NotFoundError.
// TABLE_NOT_FOUND and MODEL_ID_NOT_FOUND name a table; the generic
// NOT_FOUND and permission errors are what Airtable returns for a bad base.
func classifyAirtableMiss(status int, body []byte, baseID, table string) *NotFoundError {
	code := airtableErrorCode(body)
	switch code {
	case "TABLE_NOT_FOUND", "MODEL_ID_NOT_FOUND":
		return &NotFoundError{Base: baseID, Table: table}
	case "NOT_FOUND", "INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND":
		return &NotFoundError{Base: baseID, Table: table, MissingBase: true}
	}
	if status == http.StatusNotFound {
		return &NotFoundError{Base: baseID, Table: table}
	}
	return nil
}

func airtableErrorCode(body []byte) string {
	var payload airtableError
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 {
		return ""
	}
	var code string
	if err := json.Unmarshal(payload.Error, &code); err == nil {
		return code
	}
	var detailed struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload.Error, &detailed); err == nil {
		return detailed.Type
	}
	return ""
}

// Close is a no-op; the HTTP client is shared.
func (a *Airtable) Close() error { return nil }
