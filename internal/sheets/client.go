// Package sheets - зеркало подписок и заявок в Google-таблицу.
// Интеграция необязательная и строго best-effort: её полный отказ не
// должен влиять на основную работу бота.
package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

const (
	SheetSubscriptions = "Подписки"
	SheetLeads         = "Заявки"
)

type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

func New(credentialsPath, spreadsheetID string) (*Client, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(context.Background(),
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

func (c *Client) appendRow(sheet string, row []interface{}, headers []interface{}) error {
	if headers != nil {
		existing, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:Z").Do()
		if err == nil && len(existing.Values) == 0 {
			if err := c.doAppend(sheet, headers); err != nil {
				return err
			}
		}
	}
	return c.doAppend(sheet, row)
}

func (c *Client) doAppend(sheet string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:Z", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Do()
	return err
}
