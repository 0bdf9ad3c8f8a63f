// Package recipientfile reads recipient lists from uploaded files and builds
// the sample file of a template.
package recipientfile

import (
	"bytes"
	"codemailer/entity"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/xuri/excelize/v2"
	"path"
	"strings"
)

const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	ColumnSrNo  = "sr_no"
	ColumnEmail = "hr_email"

	sampleEmail = "example@company.com"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported recipient file format")
	ErrEmptySheet        = errors.New("sheet has no header row")
)

// FormatOf derives the file format from the file extension.
func FormatOf(fileName string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(fileName), ".")) {
	case "json":
		return FormatJSON
	case "xlsx", "xlsm":
		return FormatXLSX
	case "csv":
		return FormatCSV
	}
	return ""
}

// Parse reads the recipients of an uploaded file. Spreadsheets use the first
// row of the first sheet as keys; blank cells leave the key unset.
func Parse(fileName string, data []byte) ([]entity.Recipient, error) {
	switch FormatOf(fileName) {
	case FormatJSON:
		return ParseJSON(data)
	case FormatXLSX:
		return ParseXLSX(data)
	case FormatCSV:
		return ParseCSV(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(fileName))
}

func ParseJSON(data []byte) ([]entity.Recipient, error) {
	recipients := make([]entity.Recipient, 0)
	if err := json.Unmarshal(data, &recipients); err != nil {
		return nil, fmt.Errorf("invalid json recipient file: %w", err)
	}
	return recipients, nil
}

func ParseXLSX(data []byte) ([]entity.Recipient, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return fromRows(rows)
}

func ParseCSV(data []byte) ([]entity.Recipient, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return fromRows(rows)
}

func fromRows(rows [][]string) ([]entity.Recipient, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	recipients := make([]entity.Recipient, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := make(entity.Recipient)
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if cell = strings.TrimSpace(cell); cell == "" {
				continue
			}
			r[header[i]] = entity.StringValue(cell)
		}
		if len(r) == 0 {
			continue
		}
		recipients = append(recipients, r)
	}

	return recipients, nil
}

// HasEmailColumn reports whether any recipient carries an email address.
func HasEmailColumn(recipients []entity.Recipient) bool {
	for _, r := range recipients {
		if _, ok := r.Email(); ok {
			return true
		}
	}
	return false
}

// SampleColumns are the columns of a template's sample file: the row number,
// the email and every template variable in first-seen order.
func SampleColumns(variables []string) []string {
	columns := []string{ColumnSrNo, ColumnEmail}
	for _, v := range variables {
		if v == ColumnSrNo || v == ColumnEmail {
			continue
		}
		columns = append(columns, v)
	}
	return columns
}

func sampleValue(column string) interface{} {
	switch column {
	case ColumnSrNo:
		return 1
	case ColumnEmail:
		return sampleEmail
	}
	return fmt.Sprintf("Value for %s", column)
}

// SampleFileName is the download name of a template's sample file.
func SampleFileName(templateName, format string) string {
	name := strings.Join(strings.Fields(templateName), "_")
	if name == "" {
		name = "template"
	}
	return fmt.Sprintf("%s_sample.%s", name, format)
}

// BuildSample renders the sample file in the given format with a header row
// and one example row.
func BuildSample(variables []string, format string) ([]byte, string, error) {
	columns := SampleColumns(variables)

	switch format {
	case FormatJSON:
		b, err := buildSampleJSON(columns)
		return b, ContentTypeJSON, err
	case FormatXLSX, "":
		b, err := buildSampleXLSX(columns)
		return b, ContentTypeXLSX, err
	}

	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// buildSampleJSON keeps the column order in the single example object.
func buildSampleJSON(columns []string) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteString("[\n  {")
	for i, c := range columns {
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sampleValue(c))
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}
	buf.WriteString("\n  }\n]")

	return buf.Bytes(), nil
}

func buildSampleXLSX(columns []string) ([]byte, error) {
	xl := excelize.NewFile()
	defer func() {
		_ = xl.Close()
	}()

	sheet := xl.GetSheetName(0)

	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = sampleValue(c)
	}

	if err := xl.SetSheetRow(sheet, "A1", &columns); err != nil {
		return nil, err
	}
	if err := xl.SetSheetRow(sheet, "A2", &values); err != nil {
		return nil, err
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
