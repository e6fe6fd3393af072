package service

import (
	"bytes"
	"fmt"

	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Entregas"

var exportHeaders = []string{
	"DelCode",
	"Client",
	"Initiated",
	"Deadline",
	"Tasks Planned",
	"Tasks Total",
	"Progress (%)",
}

// ExcelExporter gera a planilha da lista filtrada
type ExcelExporter struct{}

// NewExcelExporter cria um novo exportador
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Generate gera um arquivo Excel com uma linha por entrega, na ordem recebida
func (e *ExcelExporter) Generate(list []model.Delivery) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return nil, fmt.Errorf("renomear sheet: %w", err)
	}

	if err := e.writeHeaders(f); err != nil {
		return nil, fmt.Errorf("escrever headers: %w", err)
	}

	if err := e.writeRows(f, list); err != nil {
		return nil, fmt.Errorf("escrever dados: %w", err)
	}

	widths := []float64{18, 48, 24, 22, 14, 14, 14}
	for col, width := range widths {
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return nil, fmt.Errorf("ajustar colunas: %w", err)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("escrever buffer: %w", err)
	}

	return buf, nil
}

func (e *ExcelExporter) writeHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Size:  11,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return err
		}
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// tierFill cor da coluna de progresso por faixa
var tierFill = map[model.Tier]string{
	model.TierHigh:   "C6EFCE",
	model.TierMedium: "FFEB9C",
	model.TierLow:    "FFC7CE",
}

func (e *ExcelExporter) writeRows(f *excelize.File, list []model.Delivery) error {
	tierStyles := make(map[model.Tier]int, len(tierFill))
	for tier, color := range tierFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{
				Type:    "pattern",
				Color:   []string{color},
				Pattern: 1,
			},
			NumFmt: 2, // 0.00
		})
		if err != nil {
			return err
		}
		tierStyles[tier] = style
	}

	for i, d := range list {
		row := i + 2 // Linha 1 é header
		progress := d.Progress()

		values := []interface{}{
			d.DelCode,
			d.Client,
			d.Initiated,
			d.Deadline,
			d.TasksPlanned,
			d.TasksTotal,
			progress,
		}

		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}

		progressCell, _ := excelize.CoordinatesToCellName(len(values), row)
		style := tierStyles[model.TierFor(progress)]
		if err := f.SetCellStyle(sheetName, progressCell, progressCell, style); err != nil {
			return err
		}
	}

	return nil
}
