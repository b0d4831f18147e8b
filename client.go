package gridbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client talks to the remote workbook service: it fetches whole
// workbooks, persists cell edits, and manages sheets. Remote sheets are
// sparse maps of address label → cell; Refresh densifies them into the
// rectangular grid the rest of the package works on.
//
// Transient failures (timeouts, 429, 5xx) are retried with capped
// exponential backoff up to a bounded attempt count. Other 4xx are
// surfaced immediately as *APIError.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger

	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.httpc = h }
}

// WithLogger sets the structured logger used for request logging.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithRetry sets the retry budget: total attempts (including the first)
// and the initial and maximum backoff between attempts.
func WithRetry(attempts int, initial, max time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.initialBackoff = initial
		c.maxBackoff = max
	}
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpc:          &http.Client{Timeout: 30 * time.Second},
		logger:         slog.Default(),
		maxAttempts:    4,
		initialBackoff: 250 * time.Millisecond,
		maxBackoff:     4 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire representation of the workbook service payloads. Absent
// addresses in a sheet's cell map imply empty cells.
type wireWorkbook struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Sheets []wireSheet `json:"sheets"`
}

type wireSheet struct {
	Name  string              `json:"name"`
	Cells map[string]wireCell `json:"cells"`
}

type wireCell struct {
	Value   string `json:"value,omitempty"`
	Formula string `json:"formula,omitempty"`
}

// CellEdit is one remote cell mutation, addressed by label.
type CellEdit struct {
	Address string `json:"address"`
	Value   string `json:"value,omitempty"`
	Formula string `json:"formula,omitempty"`
}

// Refresh fetches the remote workbook and converts its sparse sheets to
// dense grids, padding each to at least the default sheet size so the
// grid always has an editable area.
func (c *Client) Refresh(ctx context.Context, workbookID string) (Workbook, error) {
	var remote wireWorkbook
	if err := c.doJSON(ctx, http.MethodGet, "/workbook/"+workbookID, nil, &remote); err != nil {
		return Workbook{}, fmt.Errorf("refresh workbook %q: %w", workbookID, err)
	}

	wb := Workbook{ID: workbookID, Name: remote.Name}
	if wb.Name == "" {
		wb.Name = workbookID
	}
	for _, rs := range remote.Sheets {
		sheet, err := densify(rs)
		if err != nil {
			return Workbook{}, fmt.Errorf("refresh workbook %q: sheet %q: %w", workbookID, rs.Name, err)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	if len(wb.Sheets) == 0 {
		wb.Sheets = []Sheet{newSheet("Sheet1", defaultSheetRows, defaultSheetCols)}
	}
	wb.ActiveSheetID = wb.Sheets[0].ID
	return wb, nil
}

// densify converts a sparse address→cell map into a rectangular grid
// sized to the populated bounds, never smaller than the default grid.
func densify(rs wireSheet) (Sheet, error) {
	rows, cols := defaultSheetRows, defaultSheetCols
	parsed := make(map[CellRef]wireCell, len(rs.Cells))
	for addr, cell := range rs.Cells {
		ref, err := ParseLabel(addr)
		if err != nil {
			return Sheet{}, err
		}
		parsed[ref] = cell
		if ref.Row+1 > rows {
			rows = ref.Row + 1
		}
		if ref.Col+1 > cols {
			cols = ref.Col + 1
		}
	}

	sheet := newSheet(rs.Name, rows, cols)
	for ref, cell := range parsed {
		target := &sheet.Rows[ref.Row][ref.Col]
		target.Value = ParseValue(cell.Value)
		target.Formula = cell.Formula
	}
	return sheet, nil
}

// PersistCell round-trips a single edit to the remote service and
// returns the cell as the service stored it.
func (c *Client) PersistCell(ctx context.Context, workbookID, sheetName string, edit CellEdit) (CellEdit, error) {
	if _, err := ParseLabel(edit.Address); err != nil {
		return CellEdit{}, err
	}
	req := struct {
		Sheet string `json:"sheet"`
		CellEdit
	}{Sheet: sheetName, CellEdit: edit}

	var resp CellEdit
	if err := c.doJSON(ctx, http.MethodPost, "/cell/"+workbookID, req, &resp); err != nil {
		return CellEdit{}, fmt.Errorf("persist cell %s!%s: %w", sheetName, edit.Address, err)
	}
	return resp, nil
}

// PersistCells round-trips a batch of edits against one sheet.
func (c *Client) PersistCells(ctx context.Context, workbookID, sheetName string, edits []CellEdit) ([]CellEdit, error) {
	for _, e := range edits {
		if _, err := ParseLabel(e.Address); err != nil {
			return nil, err
		}
	}
	req := struct {
		Sheet string     `json:"sheet"`
		Edits []CellEdit `json:"edits"`
	}{Sheet: sheetName, Edits: edits}

	var resp struct {
		Cells []CellEdit `json:"cells"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/cell/batch/"+workbookID, req, &resp); err != nil {
		return nil, fmt.Errorf("persist %d cells in %q: %w", len(edits), sheetName, err)
	}
	return resp.Cells, nil
}

// CreateWorkbook creates a remote workbook and returns its id.
func (c *Client) CreateWorkbook(ctx context.Context) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/workbook/create", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("create workbook: %w", err)
	}
	return resp.ID, nil
}

// ListSheets returns the names of the workbook's sheets.
func (c *Client) ListSheets(ctx context.Context, workbookID string) ([]string, error) {
	var resp struct {
		Sheets []string `json:"sheets"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/sheet/"+workbookID, nil, &resp); err != nil {
		return nil, fmt.Errorf("list sheets of %q: %w", workbookID, err)
	}
	return resp.Sheets, nil
}

// CreateSheet adds a named sheet to the remote workbook.
func (c *Client) CreateSheet(ctx context.Context, workbookID, name string) error {
	req := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.doJSON(ctx, http.MethodPost, "/sheet/"+workbookID, req, nil); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	return nil
}

// DeleteSheet removes a named sheet from the remote workbook.
func (c *Client) DeleteSheet(ctx context.Context, workbookID, name string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/sheet/"+workbookID+"/"+name, nil, nil); err != nil {
		return fmt.Errorf("delete sheet %q: %w", name, err)
	}
	return nil
}

// doJSON performs one logical request with the retry policy. The body
// is marshaled once; out may be nil when the response body is ignored.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	backoff := c.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.logger.Debug("retrying request",
				"method", method, "path", path,
				"attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError reads the failure envelope. A missing or non-JSON body
// yields a synthesized generic message so callers always have one.
func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var envelope struct {
		Message string         `json:"message"`
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
		apiErr.Code = envelope.Code
		apiErr.Details = envelope.Details
		return apiErr
	}
	apiErr.Message = fmt.Sprintf("request failed with status %s", resp.Status)
	return apiErr
}

// retryable classifies an attempt error: API errors follow their
// Transient flag, everything else (network failures, timeouts) is
// retried except a canceled or expired parent context.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
