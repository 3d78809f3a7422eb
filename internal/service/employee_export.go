package service

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/locvowork/employee_proxy/internal/logger"
	"github.com/locvowork/employee_proxy/pkg/simpleexcel"
)

// ExportFormat selects the file type produced by Export.
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
)

const employeeSectionID = "employees"

//go:embed templates/employee_report.yaml
var employeeReportTemplate string

// ParseExportFormat maps a query value to an ExportFormat. Empty means xlsx.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExportFormatXLSX:
		return ExportFormatXLSX, nil
	case ExportFormatCSV:
		return ExportFormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatCSV {
		return "text/csv"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Export fetches every employee and writes them to w in the given format.
// Nothing is written when the upstream call fails.
func (s *EmployeeService) Export(ctx context.Context, w io.Writer, format ExportFormat) error {
	employees, err := s.repo.FetchAll(ctx)
	if err != nil {
		return err
	}

	exporter, err := simpleexcel.NewDataExporterFromYamlConfig(employeeReportTemplate)
	if err != nil {
		return fmt.Errorf("load employee report template: %w", err)
	}
	exporter.BindSectionData(employeeSectionID, employees)

	logger.InfoLog(ctx, "Exporting %d employees as %s", len(employees), format)
	if format == ExportFormatCSV {
		return exporter.ToCSV(w)
	}
	return exporter.ToWriter(w)
}
