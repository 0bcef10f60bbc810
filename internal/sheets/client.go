package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/observability"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Client talks to the Google Sheets v4 values API. All calls are synchronous
// and bounded by the caller's context; failures surface as STORE_CONNECTION
// errors and never mutate any cached state held above this layer.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	token         string
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewClient builds a client from configuration.
func NewClient(cfg config.SheetsConfig, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       cfg.BaseURL,
		spreadsheetID: cfg.SpreadsheetID,
		token:         cfg.AccessToken,
		metrics:       metrics,
		logger:        logger,
	}
}

// Worksheet binds the client to one named sheet tab.
func (c *Client) Worksheet(name string) Worksheet {
	return &restWorksheet{client: c, sheet: name}
}

// Ping verifies the spreadsheet is reachable by reading the first cell of
// the first sheet range the API will resolve.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.getValues(ctx, "A1:A1")
	return err
}

type valuesResponse struct {
	Values [][]any `json:"values"`
}

func (c *Client) getValues(ctx context.Context, rangeRef string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(rangeRef))
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var parsed valuesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperrors.NewStoreConnectionError(fmt.Errorf("decode values response: %w", err))
	}
	rows := make([][]string, len(parsed.Values))
	for i, raw := range parsed.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = cellString(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []string) error {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(RangeRef(sheet, "A1")))
	payload := map[string]any{"values": [][]string{row}}
	_, err := c.do(ctx, http.MethodPost, endpoint, payload)
	return err
}

func (c *Client) batchUpdate(ctx context.Context, sheet string, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	data := make([]map[string]any, 0, len(updates))
	for _, u := range updates {
		data = append(data, map[string]any{
			"range":  RangeRef(sheet, CellRef(u.Row, u.Col)),
			"values": [][]string{{u.Value}},
		})
	}
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values:batchUpdate",
		c.baseURL, url.PathEscape(c.spreadsheetID))
	payload := map[string]any{
		"valueInputOption": "USER_ENTERED",
		"data":             data,
	}
	_, err := c.do(ctx, http.MethodPost, endpoint, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.metrics.RecordStoreTrip()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewStoreConnectionError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.NewStoreConnectionError(err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("sheets call failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode))
		return nil, apperrors.NewStoreConnectionError(fmt.Errorf("sheets API status %d", resp.StatusCode))
	}
	return body, nil
}

// cellString renders an API cell value. JSON numbers decode as float64;
// integral values must not pick up an exponent or fraction.
func cellString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

type restWorksheet struct {
	client *Client
	sheet  string
}

func (w *restWorksheet) Values(ctx context.Context) ([][]string, error) {
	return w.client.getValues(ctx, w.sheet)
}

func (w *restWorksheet) ColValues(ctx context.Context, col int) ([]string, error) {
	letter := ColumnLetter(col)
	rows, err := w.client.getValues(ctx, RangeRef(w.sheet, letter+":"+letter))
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			out[i] = row[0]
		}
	}
	return out, nil
}

func (w *restWorksheet) RowValues(ctx context.Context, row int) ([]string, error) {
	ref := strconv.Itoa(row)
	rows, err := w.client.getValues(ctx, RangeRef(w.sheet, ref+":"+ref))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (w *restWorksheet) Cell(ctx context.Context, row, col int) (string, error) {
	ref := CellRef(row, col)
	rows, err := w.client.getValues(ctx, RangeRef(w.sheet, ref+":"+ref))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}

func (w *restWorksheet) AppendRow(ctx context.Context, row []string) error {
	return w.client.appendRow(ctx, w.sheet, row)
}

func (w *restWorksheet) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	return w.client.batchUpdate(ctx, w.sheet, updates)
}
