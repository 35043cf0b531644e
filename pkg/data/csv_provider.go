package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// DefaultDateFormats are tried in order when parsing the date column.
var DefaultDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// CSVPanelProvider reads wide CSV files into panels: the first column is the
// date, every further column is one instrument.
type CSVPanelProvider struct {
	dateFormats []string
}

// NewCSVPanelProvider creates a provider with the default date formats.
func NewCSVPanelProvider() *CSVPanelProvider {
	return &CSVPanelProvider{dateFormats: DefaultDateFormats}
}

// NewCSVPanelProviderWithFormats creates a provider with custom date formats.
func NewCSVPanelProviderWithFormats(formats []string) *CSVPanelProvider {
	return &CSVPanelProvider{dateFormats: formats}
}

// GetName returns the name of the provider.
func (p *CSVPanelProvider) GetName() string {
	return "CSV Panel Provider"
}

// LoadPanel loads a panel from a wide CSV file.
func (p *CSVPanelProvider) LoadPanel(source string) (*backtest.Panel, error) {
	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("could not open panel file: %w", err)
	}
	defer file.Close()
	return p.readPanel(file, source)
}

func (p *CSVPanelProvider) readPanel(r io.Reader, source string) (*backtest.Panel, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading header of %s: %w", source, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s has no instrument columns", source)
	}
	instruments := make([]string, 0, len(header)-1)
	for _, name := range header[1:] {
		instruments = append(instruments, strings.TrimSpace(name))
	}

	panel := backtest.NewPanel(instruments)
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading %s at line %d: %w", source, lineNum, err)
		}
		lineNum++

		if len(record) != len(header) {
			log.Printf("⚠️ Row with %d columns at line %d of %s (expected %d), skipping", len(record), lineNum, source, len(header))
			continue
		}

		date, err := p.parseDate(strings.TrimSpace(record[0]))
		if err != nil {
			log.Printf("⚠️ Invalid date %q at line %d of %s, skipping: %v", record[0], lineNum, source, err)
			continue
		}

		values := make([]float64, len(instruments))
		ok := true
		for i, cell := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				log.Printf("⚠️ Invalid value %q at line %d of %s, skipping row: %v", cell, lineNum, source, err)
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}

		if err := panel.AddRow(date, values); err != nil {
			return nil, fmt.Errorf("%s is not in chronological order: %w", source, err)
		}
	}

	if panel.Len() == 0 {
		return nil, fmt.Errorf("%s contains no usable rows", source)
	}
	return panel, nil
}

func (p *CSVPanelProvider) parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, format := range p.dateFormats {
		t, err := time.Parse(format, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
