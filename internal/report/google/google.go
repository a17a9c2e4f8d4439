// Package google appends rollover report rows to a Google Sheets
// spreadsheet using OAuth user credentials.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"paycycle/internal/config"
	"paycycle/internal/report"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ report.Writer = (*Client)(nil)

// NewFromConfig creates a Sheets report writer from the Google settings
// in cfg. OAuth client and token come from files or inline JSON.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" || cfg.GoogleSheetName == "" {
		return nil, errors.New("sheets report not configured")
	}

	clientJSON, err := readCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client credentials: %w", err)
	}
	tokenJSON, err := readCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	oauthCfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth config: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	httpClient := oauthCfg.Client(ctx, &token)
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Sheets report writer ready",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

func readCredential(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		return os.ReadFile(file)
	default:
		return nil, errors.New("neither inline JSON nor file provided")
	}
}

// AppendRollover appends one row: user, cycle type, period start and
// end, rollover time.
func (c *Client) AppendRollover(ctx context.Context, entry report.RolloverEntry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{{
		entry.UserID,
		string(entry.CycleType),
		entry.Start.Format("2006-01-02"),
		entry.End.Format("2006-01-02"),
		entry.RolledAt.Format("2006-01-02 15:04:05"),
	}}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append rollover row to sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Rollover reported",
		"user_id", entry.UserID,
		"cycle_type", string(entry.CycleType),
		"period_start", entry.Start.Format("2006-01-02"))

	return nil
}
