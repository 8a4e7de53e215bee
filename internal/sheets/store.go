package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Grid is everything the engine needs to know about the remote worksheet:
// its current cell values (header row included) and its allocated capacity.
type Grid struct {
	Values [][]string
	Rows   int
	Cols   int
}

// RangeWrite is one raw range write: values land exactly as given, the
// store's auto-formatting is not relied upon.
type RangeWrite struct {
	Range  string
	Values [][]string
}

// RowStore abstracts the remote tabular store so the reconciliation engine
// can be exercised against a fake.
type RowStore interface {
	Load(ctx context.Context) (*Grid, error)
	Write(ctx context.Context, writes []RangeWrite) error
	EnsureCapacity(ctx context.Context, rows, cols int) error
}

const (
	newSheetRows = 2000
	// Sheets API quota is per-minute per-user; one call per second keeps a
	// full run comfortably inside it.
	requestsPerSecond = 1
)

// GoogleStore implements RowStore on a single worksheet of a Google
// spreadsheet. The worksheet is created on first Load when absent.
type GoogleStore struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	title         string
	limiter       *rate.Limiter
	logger        *zap.Logger

	sheetID int64
	rows    int
	cols    int
}

func NewGoogleStore(ctx context.Context, credentialsJSON []byte, spreadsheetID, title string, logger *zap.Logger) (*GoogleStore, error) {
	jwt, err := google.JWTConfigFromJSON(credentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(jwt.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		title:         title,
		limiter:       rate.NewLimiter(rate.Limit(requestsPerSecond), 2),
		logger:        logger,
	}, nil
}

func (g *GoogleStore) wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Load fetches the worksheet's values and capacity, creating the worksheet
// when it does not exist yet.
func (g *GoogleStore) Load(ctx context.Context) (*Grid, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	meta, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	var found *sheetsapi.SheetProperties
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == g.title {
			found = sh.Properties
			break
		}
	}
	if found == nil {
		found, err = g.addWorksheet(ctx)
		if err != nil {
			return nil, err
		}
		g.logger.Info("created worksheet", zap.String("title", g.title))
	}
	g.sheetID = found.SheetId
	g.rows = int(found.GridProperties.RowCount)
	g.cols = int(found.GridProperties.ColumnCount)

	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.title).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		values = append(values, cells)
	}
	return &Grid{Values: values, Rows: g.rows, Cols: g.cols}, nil
}

func (g *GoogleStore) addWorksheet(ctx context.Context) (*sheetsapi.SheetProperties, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{
					Title: g.title,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    newSheetRows,
						ColumnCount: 26,
					},
				},
			},
		}},
	}
	resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	return resp.Replies[0].AddSheet.Properties, nil
}

// Write issues a batch of raw range writes in one API call.
func (g *GoogleStore) Write(ctx context.Context, writes []RangeWrite) error {
	if len(writes) == 0 {
		return nil
	}
	if err := g.wait(ctx); err != nil {
		return err
	}
	data := make([]*sheetsapi.ValueRange, 0, len(writes))
	for _, w := range writes {
		rows := make([][]interface{}, len(w.Values))
		for i, r := range w.Values {
			cells := make([]interface{}, len(r))
			for j, c := range r {
				cells[j] = c
			}
			rows[i] = cells
		}
		data = append(data, &sheetsapi.ValueRange{
			Range:  fmt.Sprintf("%s!%s", g.title, w.Range),
			Values: rows,
		})
	}
	req := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}
	if _, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	return nil
}

// EnsureCapacity grows the worksheet's grid. It never shrinks.
func (g *GoogleStore) EnsureCapacity(ctx context.Context, rows, cols int) error {
	if rows <= g.rows && cols <= g.cols {
		return nil
	}
	if rows < g.rows {
		rows = g.rows
	}
	if cols < g.cols {
		cols = g.cols
	}
	if err := g.wait(ctx); err != nil {
		return err
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			UpdateSheetProperties: &sheetsapi.UpdateSheetPropertiesRequest{
				Properties: &sheetsapi.SheetProperties{
					SheetId: g.sheetID,
					GridProperties: &sheetsapi.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
				Fields: "gridProperties.rowCount,gridProperties.columnCount",
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	g.rows, g.cols = rows, cols
	return nil
}
