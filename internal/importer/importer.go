package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/packing-station/internal/domain/fulfillment"
)

// Mutator те же вызовы, что и при ручном вводе — отдельной проверки у импорта нет.
type Mutator interface {
	AddOrder(ctx context.Context, number string, boxCount, itemCount int) (int64, error)
	AddBox(ctx context.Context, orderID int64, number string) (int64, error)
	AddItem(ctx context.Context, boxID int64, f fulfillment.ItemFields) (int64, error)
}

// Колонки листа заказа.
const (
	ColOrderNumber     = "OrderNumber"
	ColBoxCount        = "BoxCount"
	ColBarcode         = "Barcode"
	ColDatamatrix      = "Datamatrix"
	ColCryptoTail      = "CryptoTail"
	ColProductName     = "ProductName"
	ColArticle         = "Article"
	ColSize            = "Size"
	ColColor           = "Color"
	ColComposition     = "Composition"
	ColCountry         = "Country"
	ColManufactureDate = "ManufactureDate"
	ColBrand           = "Brand"
	ColBoxNumber       = "BoxNumber"
)

// Columns порядок колонок в шаблоне выгрузки.
var Columns = []string{
	ColOrderNumber, ColBoxCount, ColBarcode, ColDatamatrix, ColCryptoTail,
	ColProductName, ColArticle, ColSize, ColColor, ColComposition,
	ColCountry, ColManufactureDate, ColBrand, ColBoxNumber,
}

var required = []string{ColOrderNumber, ColBoxCount, ColBarcode, ColBoxNumber}

type Result struct {
	OrderID     int64
	OrderNumber string
	Boxes       int
	Items       int
}

type Importer struct {
	m   Mutator
	log *slog.Logger
}

func New(m Mutator, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Importer{m: m, log: log}
}

func (im *Importer) ImportFile(ctx context.Context, path string) (Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Result{}, &fulfillment.ValidationError{Field: "file", Msg: fmt.Sprintf("cannot read %s: %v", path, err)}
	}
	defer func() { _ = f.Close() }()
	return im.importBook(ctx, f)
}

func (im *Importer) Import(ctx context.Context, r io.Reader) (Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, &fulfillment.ValidationError{Field: "file", Msg: "not an xlsx/xlsm workbook: " + err.Error()}
	}
	defer func() { _ = f.Close() }()
	return im.importBook(ctx, f)
}

func (im *Importer) importBook(ctx context.Context, f *excelize.File) (Result, error) {
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return im.importRows(ctx, rows)
}

type sheetRow struct {
	line  int // номер строки на листе, с 1
	cells []string
}

func (im *Importer) importRows(ctx context.Context, rows [][]string) (Result, error) {
	if len(rows) < 2 {
		return Result{}, &fulfillment.ValidationError{Field: "file", Msg: "no data rows"}
	}
	cols := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return Result{}, &fulfillment.ValidationError{Field: c, Msg: "missing column"}
		}
	}
	cell := func(r sheetRow, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(r.cells) {
			return ""
		}
		return strings.TrimSpace(r.cells[i])
	}

	var data []sheetRow
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		data = append(data, sheetRow{line: i + 2, cells: cells})
	}
	if len(data) == 0 {
		return Result{}, &fulfillment.ValidationError{Field: "file", Msg: "no data rows"}
	}

	first := data[0]
	boxCount, err := fulfillment.ParseCount(ColBoxCount, cell(first, ColBoxCount))
	if err != nil {
		return Result{}, fmt.Errorf("row %d: %w", first.line, err)
	}
	res := Result{OrderNumber: cell(first, ColOrderNumber)}
	res.OrderID, err = im.m.AddOrder(ctx, res.OrderNumber, boxCount, len(data))
	if err != nil {
		return res, fmt.Errorf("row %d: %w", first.line, err)
	}

	// Новый короб — на каждой смене BoxNumber, строки идут подряд.
	var (
		curNumber string
		boxID     int64
	)
	for _, r := range data {
		number := cell(r, ColBoxNumber)
		if number == "" {
			return res, fmt.Errorf("row %d: %w", r.line, &fulfillment.ValidationError{Field: ColBoxNumber, Msg: "empty"})
		}
		if boxID == 0 || number != curNumber {
			boxID, err = im.m.AddBox(ctx, res.OrderID, number)
			if err != nil {
				return res, fmt.Errorf("row %d: %w", r.line, err)
			}
			curNumber = number
			res.Boxes++
		}
		_, err := im.m.AddItem(ctx, boxID, fulfillment.ItemFields{
			Barcode:         cell(r, ColBarcode),
			Datamatrix:      cell(r, ColDatamatrix),
			CryptoTail:      cell(r, ColCryptoTail),
			ProductName:     cell(r, ColProductName),
			Article:         cell(r, ColArticle),
			Size:            cell(r, ColSize),
			Color:           cell(r, ColColor),
			Composition:     cell(r, ColComposition),
			Country:         cell(r, ColCountry),
			ManufactureDate: cell(r, ColManufactureDate),
			Brand:           cell(r, ColBrand),
		})
		if err != nil {
			return res, fmt.Errorf("row %d: %w", r.line, err)
		}
		res.Items++
	}

	im.log.Info("order imported",
		"order_id", res.OrderID, "order", res.OrderNumber,
		"boxes", res.Boxes, "items", res.Items)
	return res, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
