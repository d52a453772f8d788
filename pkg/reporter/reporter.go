package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatCSV  ReportFormat = "csv"
	FormatJSON ReportFormat = "json"
	FormatHTML ReportFormat = "html"
)

// ParseFormat maps a format name to a ReportFormat. Empty means CSV.
func ParseFormat(s string) (ReportFormat, error) {
	switch ReportFormat(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON, FormatHTML:
		return ReportFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported report format %q (use csv, json or html)", s)
	}
}

// Report contains all data for generating reports
type Report struct {
	Title            string                      `json:"title"`
	GeneratedAt      time.Time                   `json:"generated_at"`
	Snapshot         *models.Snapshot            `json:"snapshot"`
	Infrastructure   models.InfrastructureConfig `json:"infrastructure"`
	IdleWorkstations int                         `json:"idle_workstations"`
	Trend            *models.Trend               `json:"trend,omitempty"`
	Sectors          []models.SectorConsumption  `json:"sectors,omitempty"`
}

// Reporter generates sustainability reports
type Reporter struct {
	format ReportFormat
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
	}
}

func (r *Reporter) Format() ReportFormat {
	return r.format
}

// Generate assembles a report around a snapshot. trend and sectors may be nil.
func (r *Reporter) Generate(snap *models.Snapshot, infra models.InfrastructureConfig, trend *models.Trend, sectors []models.SectorConsumption) *Report {
	return &Report{
		Title:            "EcoTI Sustainability Report",
		GeneratedAt:      time.Now(),
		Snapshot:         snap,
		Infrastructure:   infra,
		IdleWorkstations: snap.State.IdleWorkstations(infra),
		Trend:            trend,
		Sectors:          sectors,
	}
}

// Write renders the report in the reporter's format
func (r *Reporter) Write(report *Report, w io.Writer) error {
	switch r.format {
	case FormatCSV:
		return GenerateCSV(report, w)
	case FormatJSON:
		return GenerateJSON(report, w)
	case FormatHTML:
		return GenerateHTML(report, w)
	default:
		return fmt.Errorf("unsupported report format: %s", r.format)
	}
}

func (r *Reporter) ContentType() string {
	switch r.format {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/csv"
	}
}

// Filename is the default download name for the format
func (r *Reporter) Filename() string {
	return "eco_dashboard_data." + string(r.format)
}
