// Package google mirrors transactions to a Google Sheets spreadsheet. One
// row per transaction, with the local ID in the last column so deletes can
// find the mirrored copy.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/config"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/export"
)

// Row layout: A entry date, B description, C amount, D type, E category, F id.
const rowWidth = 6

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.Exporter = (*Client)(nil)

// NewFromConfig builds a Sheets client from the OAuth client and token the
// configuration points at. Run the oauth-init command once to obtain the
// token file.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := cfg.GoogleSheetName
	if sheetName == "" {
		sheetName = "Transactions"
	}

	oauthConfig, err := LoadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := loadToken(cfg)
	if err != nil {
		return nil, err
	}

	// The token source refreshes expired access tokens transparently.
	httpClient := oauthConfig.Client(ctx, token)
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// LoadOAuthConfig reads the OAuth client secret from inline JSON or a file.
func LoadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	var raw []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		raw = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read OAuth client file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing OAuth client credentials (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}

	oauthConfig, err := googleauth.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client config: %w", err)
	}
	return oauthConfig, nil
}

func loadToken(cfg *config.Config) (*oauth2.Token, error) {
	var raw []byte
	switch {
	case cfg.GoogleOAuthTokenJSON != "":
		raw = []byte(cfg.GoogleOAuthTokenJSON)
	case cfg.GoogleOAuthTokenFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthTokenFile)
		if err != nil {
			return nil, fmt.Errorf("read OAuth token file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing OAuth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(raw, token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}
	return token, nil
}

// AppendRow appends a transaction row and returns the written range.
func (c *Client) AppendRow(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Appended transaction row",
		"transaction_id", tx.ID, "sheets_ref", ref)
	return ref, nil
}

// RemoveRow deletes the row whose ID column matches transactionID. A missing
// row is not an error, the mirror may never have been written.
func (c *Client) RemoveRow(ctx context.Context, transactionID int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!F:F", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ID column: %w", err)
	}

	rowIndex := findRowByID(resp.Values, transactionID)
	if rowIndex < 0 {
		slog.WarnContext(ctx, "Mirrored row not found, nothing to remove",
			"transaction_id", transactionID)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex),
					EndIndex:   int64(rowIndex + 1),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d: %w", rowIndex+1, err)
	}

	slog.InfoContext(ctx, "Removed transaction row",
		"transaction_id", transactionID, "row", rowIndex+1)
	return nil
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == c.sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func transactionRow(tx core.Transaction) []any {
	return []any{
		tx.Date.Format("2006-01-02"),
		tx.Description,
		core.FormatCents(tx.Amount.Cents),
		tx.Type.String(),
		tx.Category,
		strconv.FormatInt(tx.ID, 10),
	}
}

// findRowByID returns the zero-based index of the row whose ID cell matches
// id, or -1.
func findRowByID(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}
