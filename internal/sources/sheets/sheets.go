// Package sheets reads ledger rows from a Google Spreadsheet and exposes each
// sheet as one document.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sources"
)

var _ sources.Source = (*Client)(nil)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetNames    []string
}

// Open builds a client for spreadsheetID reading the comma separated sheet
// names (default "Ledger"). Credentials come from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func Open(ctx context.Context, spreadsheetID, sheetNames string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, splitNames(sheetNames)...), nil
}

// New wraps an existing service.
func New(svc *gsheet.Service, spreadsheetID string, sheetNames ...string) *Client {
	if len(sheetNames) == 0 {
		sheetNames = []string{"Ledger"}
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetNames: sheetNames}
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	log.Default().WithComponent(log.ComponentSource).InfoContext(ctx, "Creating Google Sheets service",
		log.FieldSource, "sheets",
		"scope", gsheet.SpreadsheetsReadonlyScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Documents reads columns A:D of every configured sheet.
func (c *Client) Documents(ctx context.Context) ([]core.Document, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	docs := make([]core.Document, 0, len(c.sheetNames))
	for _, name := range c.sheetNames {
		rng := fmt.Sprintf("%s!A:D", name)
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("read range %s: %w", rng, err)
		}
		docs = append(docs, core.Document{Name: "sheets:" + name, Text: rowsToText(resp.Values)})
	}
	log.Default().WithComponent(log.ComponentSource).DebugContext(ctx, "Sheets read",
		log.FieldOperation, log.OpLoad,
		log.FieldSource, "sheets",
		log.FieldDocuments, len(docs))
	return docs, nil
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
