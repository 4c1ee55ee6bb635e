package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// FetchError wraps a network or parse failure for one tab. Fetches are pure
// reads with no internal retries; the caller owns the retry policy.
type FetchError struct {
	SheetID string
	TabName string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s!%s: %v", e.SheetID, e.TabName, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Client struct {
	service *sheets.Service
}

func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	service, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service: service,
	}, nil
}

// Title resolves the spreadsheet's display title from its metadata.
func (c *Client) Title(ctx context.Context, spreadsheetID string) (string, error) {
	resp, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return "", &FetchError{SheetID: spreadsheetID, Err: err}
	}
	if resp.Properties == nil {
		return "", &FetchError{SheetID: spreadsheetID, Err: fmt.Errorf("spreadsheet has no properties")}
	}
	return resp.Properties.Title, nil
}

// FetchTab reads an entire tab and converts it into header-keyed rows. The
// first sheet row is the header, everything after it is data.
func (c *Client) FetchTab(ctx context.Context, spreadsheetID, tabName string) (Tab, error) {
	readRange := fmt.Sprintf("%s!A1:ZZ10000", tabName)
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return Tab{}, &FetchError{SheetID: spreadsheetID, TabName: tabName, Err: err}
	}

	return TabFromValues(resp.Values), nil
}
