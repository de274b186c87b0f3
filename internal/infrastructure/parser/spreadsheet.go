package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/antonkudrin/docforge/internal/core/domain"
)

func parseSpreadsheet(path string) (*domain.ParseResult, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var sb strings.Builder
	var tables [][]string
	sheets := book.GetSheetList()
	for _, sheet := range sheets {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			tables = append(tables, row)
			sb.WriteString(strings.Join(row, " "))
			sb.WriteString("\n")
		}
	}

	result := &domain.ParseResult{
		Text:   strings.TrimSpace(sb.String()),
		Tables: tables,
		Metadata: domain.DocumentMetadata{
			PageCount: len(sheets),
			HasTables: len(tables) > 0,
		},
	}
	fillWordCount(result)
	return result, nil
}

func parseCSV(path string) (*domain.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(strings.Join(record, " "))
		sb.WriteString("\n")
	}

	result := &domain.ParseResult{
		Text:   strings.TrimSpace(sb.String()),
		Tables: records,
		Metadata: domain.DocumentMetadata{
			PageCount: 1,
			HasTables: len(records) > 0,
		},
	}
	fillWordCount(result)
	return result, nil
}
