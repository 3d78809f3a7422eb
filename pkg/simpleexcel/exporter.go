package simpleexcel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Types
// =============================================================================

// DataExporter renders sections of tabular data into a workbook.
type DataExporter struct {
	// data holds data bound to specific section IDs (for YAML flow)
	data map[string]interface{}
	// sheets holds sheets in render order, from YAML first, then added in code
	sheets []*SheetBuilder
}

// ReportTemplate represents the YAML structure.
type ReportTemplate struct {
	Sheets []SheetTemplate `yaml:"sheets"`
}

// SheetTemplate represents a sheet in the YAML.
type SheetTemplate struct {
	Name     string          `yaml:"name"`
	Sections []SectionConfig `yaml:"sections"`
}

// SectionConfig defines a section of data in a sheet.
type SectionConfig struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Data        interface{}    `yaml:"-"` // Data is bound at runtime
	ShowHeader  bool           `yaml:"show_header"`
	TitleStyle  *StyleTemplate `yaml:"title_style"`
	HeaderStyle *StyleTemplate `yaml:"header_style"`
	Columns     []ColumnConfig `yaml:"columns"`
}

// ColumnConfig defines a column in a section.
type ColumnConfig struct {
	FieldName string  `yaml:"field_name"` // Struct field name or map key
	Header    string  `yaml:"header"`
	Width     float64 `yaml:"width"`
}

// StyleTemplate defines basic styling.
type StyleTemplate struct {
	Font *FontTemplate `yaml:"font"`
	Fill *FillTemplate `yaml:"fill"`
}

type FontTemplate struct {
	Bold  bool   `yaml:"bold"`
	Color string `yaml:"color"` // Hex color
}

type FillTemplate struct {
	Color string `yaml:"color"` // Hex color
}

// =============================================================================
// Constructors
// =============================================================================

func NewDataExporter() *DataExporter {
	return &DataExporter{
		data: make(map[string]interface{}),
	}
}

// NewDataExporterFromYamlConfig builds an exporter whose sheets and sections
// come from a YAML report template.
func NewDataExporterFromYamlConfig(config string) (*DataExporter, error) {
	var tmpl ReportTemplate
	if err := yaml.Unmarshal([]byte(config), &tmpl); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(tmpl.Sheets) == 0 {
		return nil, fmt.Errorf("report template defines no sheets")
	}

	e := NewDataExporter()
	for _, st := range tmpl.Sheets {
		sb := e.AddSheet(st.Name)
		for i := range st.Sections {
			sec := st.Sections[i]
			sb.AddSection(&sec)
		}
	}
	return e, nil
}

// =============================================================================
// Fluent API
// =============================================================================

// AddSheet starts a new sheet builder.
func (e *DataExporter) AddSheet(name string) *SheetBuilder {
	sb := &SheetBuilder{
		exporter: e,
		name:     name,
	}
	e.sheets = append(e.sheets, sb)
	return sb
}

// GetSheet returns the sheet with the given name, or nil.
func (e *DataExporter) GetSheet(name string) *SheetBuilder {
	for _, sb := range e.sheets {
		if sb.name == name {
			return sb
		}
	}
	return nil
}

// BindSectionData binds data to a section ID (for YAML-based export).
func (e *DataExporter) BindSectionData(id string, data interface{}) *DataExporter {
	e.data[id] = data
	return e
}

// SheetBuilder collects the sections of one sheet.
type SheetBuilder struct {
	exporter *DataExporter
	name     string
	sections []*SectionConfig
}

func (sb *SheetBuilder) AddSection(config *SectionConfig) *SheetBuilder {
	sb.sections = append(sb.sections, config)
	return sb
}

func (sb *SheetBuilder) Build() *DataExporter {
	return sb.exporter
}

// =============================================================================
// Output
// =============================================================================

// BuildExcel renders every sheet into a new workbook. The caller closes it.
func (e *DataExporter) BuildExcel() (*excelize.File, error) {
	if len(e.sheets) == 0 {
		return nil, fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	for i, sb := range e.sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sb.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet %q: %w", sb.name, err)
			}
		} else if _, err := f.NewSheet(sb.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", sb.name, err)
		}

		if err := e.renderSections(f, sb.name, sb.sections); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// ToBytes exports the workbook to an in-memory byte slice.
func (e *DataExporter) ToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := e.ToWriter(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToWriter writes the workbook to w.
func (e *DataExporter) ToWriter(w io.Writer) error {
	f, err := e.BuildExcel()
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// ToCSV writes the sections of the first sheet to w as CSV. Titles are
// skipped; headers are written for sections that show them.
func (e *DataExporter) ToCSV(w io.Writer) error {
	if len(e.sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	csvWriter := csv.NewWriter(w)
	for _, sec := range e.sheets[0].sections {
		if sec.ShowHeader {
			headers := make([]string, len(sec.Columns))
			for i, col := range sec.Columns {
				headers[i] = col.Header
			}
			if err := csvWriter.Write(headers); err != nil {
				return fmt.Errorf("error writing CSV header: %w", err)
			}
		}

		err := e.eachRow(sec, func(row []interface{}) error {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = fmt.Sprint(v)
			}
			return csvWriter.Write(record)
		})
		if err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// =============================================================================
// Rendering Logic
// =============================================================================

func (e *DataExporter) renderSections(f *excelize.File, sheet string, sections []*SectionConfig) error {
	currentRow := 1

	for _, sec := range sections {
		if sec.Title != "" {
			cell, _ := excelize.CoordinatesToCellName(1, currentRow)
			if err := f.SetCellValue(sheet, cell, sec.Title); err != nil {
				return err
			}
			styleID, err := createStyle(f, sec.TitleStyle)
			if err != nil {
				return fmt.Errorf("title style: %w", err)
			}

			endCell := cell
			// Merge title across columns if there are multiple columns
			if len(sec.Columns) > 1 {
				endCell, _ = excelize.CoordinatesToCellName(len(sec.Columns), currentRow)
				if err := f.MergeCell(sheet, cell, endCell); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet, cell, endCell, styleID); err != nil {
				return err
			}
			currentRow++
		}

		if sec.ShowHeader {
			styleID, err := createStyle(f, sec.HeaderStyle)
			if err != nil {
				return fmt.Errorf("header style: %w", err)
			}
			for i, col := range sec.Columns {
				cell, _ := excelize.CoordinatesToCellName(i+1, currentRow)
				if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styleID); err != nil {
					return err
				}
				if col.Width > 0 {
					colName, _ := excelize.ColumnNumberToName(i + 1)
					if err := f.SetColWidth(sheet, colName, colName, col.Width); err != nil {
						return err
					}
				}
			}
			currentRow++
		}

		err := e.eachRow(sec, func(row []interface{}) error {
			cell, _ := excelize.CoordinatesToCellName(1, currentRow)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			currentRow++
			return nil
		})
		if err != nil {
			return fmt.Errorf("sheet %q section %q: %w", sheet, sec.ID, err)
		}

		// Add spacing between sections
		currentRow++
	}
	return nil
}

// eachRow calls fn with the column values of every item bound to sec.
func (e *DataExporter) eachRow(sec *SectionConfig, fn func([]interface{}) error) error {
	data := sec.Data
	if bound, ok := e.data[sec.ID]; ok && sec.ID != "" {
		data = bound
	}
	if data == nil {
		return nil
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("section data must be a slice, got %v", v.Kind())
	}
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		row := make([]interface{}, len(sec.Columns))
		for j, col := range sec.Columns {
			row[j] = extractValue(item, col.FieldName)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func extractValue(item reflect.Value, fieldName string) interface{} {
	for item.Kind() == reflect.Ptr || item.Kind() == reflect.Interface {
		if item.IsNil() {
			return ""
		}
		item = item.Elem()
	}

	switch item.Kind() {
	case reflect.Struct:
		if f := item.FieldByName(fieldName); f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	case reflect.Map:
		if item.Type().Key().Kind() == reflect.String {
			if v := item.MapIndex(reflect.ValueOf(fieldName).Convert(item.Type().Key())); v.IsValid() {
				return v.Interface()
			}
		}
	}
	return ""
}

func createStyle(f *excelize.File, tmpl *StyleTemplate) (int, error) {
	style := &excelize.Style{}
	if tmpl == nil {
		return f.NewStyle(style)
	}
	if tmpl.Font != nil {
		style.Font = &excelize.Font{
			Bold:  tmpl.Font.Bold,
			Color: strings.TrimPrefix(tmpl.Font.Color, "#"),
		}
	}
	if tmpl.Fill != nil {
		style.Fill = excelize.Fill{
			Type:    "pattern",
			Color:   []string{strings.TrimPrefix(tmpl.Fill.Color, "#")},
			Pattern: 1,
		}
	}
	return f.NewStyle(style)
}
