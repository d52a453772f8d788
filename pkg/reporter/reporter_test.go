package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leonardobora/eco-dashboard-renault/pkg/models"
)

func testInfra() models.InfrastructureConfig {
	return models.InfrastructureConfig{
		TotalWorkstations:   5376,
		TotalServers:        90,
		AvgWorkstationWatts: 250,
		EmissionFactor:      0.0817,
		TreeSequestration:   22,
		EnergyTariff:        0.60,
	}
}

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		ID:          "snap-1",
		Source:      "local",
		Metrics:     models.DerivedMetrics{CurrentConsumption: 874, AnnualEmissions: 625514.808, PotentialSavings: 352800, TreeEquivalent: 28432},
		State:       models.ReferenceState(),
		Hour:        10,
		UsageFactor: 0.8,
		CollectedAt: time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC),
	}
}

func testTrend() *models.Trend {
	return &models.Trend{
		Period: "day",
		Points: []models.TrendPoint{
			{Label: "00:00", Index: 0, Utilization: 0.2, ConsumptionKWh: 244},
			{Label: "08:00", Index: 1, Utilization: 0.8, ConsumptionKWh: 874},
		},
		PeakIndex: 1,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input       string
		expected    ReportFormat
		expectError bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"html", FormatHTML, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.expectError {
			if err == nil {
				t.Errorf("Expected error for %q", tt.input)
			}
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseFormat(%q): expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestGenerate(t *testing.T) {
	report := New(FormatCSV).Generate(testSnapshot(), testInfra(), nil, nil)

	if report.IdleWorkstations != 1176 {
		t.Errorf("Expected 1176 idle workstations, got %d", report.IdleWorkstations)
	}
	if report.GeneratedAt.IsZero() {
		t.Error("Expected generation time")
	}
}

func TestGenerateCSV(t *testing.T) {
	sectors := []models.SectorConsumption{{Name: "Engineering", Workstations: 1500, ConsumptionKW: 300, AnnualCO2Kg: 214696.8}}
	report := New(FormatCSV).Generate(testSnapshot(), testInfra(), nil, sectors)

	var buf bytes.Buffer
	if err := GenerateCSV(report, &buf); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}

	expected := [][]string{
		{"Metric", "Value", "Unit"},
		{"Current Consumption", "874.00", "kWh"},
		{"CO2 Emissions", "625514.81", "kg/year"},
		{"Potential Savings", "352800.00", "BRL/year"},
		{"Tree Equivalent", "28432", "trees"},
	}
	for i, row := range expected {
		if strings.Join(records[i], ",") != strings.Join(row, ",") {
			t.Errorf("Row %d: expected %v, got %v", i, row, records[i])
		}
	}

	if !strings.Contains(buf.String(), "SECTOR BREAKDOWN") || !strings.Contains(buf.String(), "Engineering,1500,300.00") {
		t.Errorf("Expected sector breakdown in CSV, got:\n%s", buf.String())
	}
}

func TestGenerateJSON(t *testing.T) {
	report := New(FormatJSON).Generate(testSnapshot(), testInfra(), testTrend(), nil)

	var buf bytes.Buffer
	if err := GenerateJSON(report, &buf); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var decoded struct {
		Snapshot struct {
			Metrics map[string]float64 `json:"metrics"`
		} `json:"snapshot"`
		Trend *models.Trend `json:"trend"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded.Snapshot.Metrics["tree_equivalent"] != 28432 {
		t.Errorf("Expected tree_equivalent 28432, got %v", decoded.Snapshot.Metrics["tree_equivalent"])
	}
	if decoded.Trend == nil || len(decoded.Trend.Points) != 2 {
		t.Errorf("Expected trend with 2 points, got %+v", decoded.Trend)
	}
}

func TestGenerateHTML(t *testing.T) {
	snap := testSnapshot()
	snap.Stale = true
	report := New(FormatHTML).Generate(snap, testInfra(), testTrend(), nil)

	var buf bytes.Buffer
	if err := GenerateHTML(report, &buf); err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"EcoTI Sustainability Report",
		"28432",
		"Day Trend",
		`class="peak"`,
		"80%",
		"Showing the last known values",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected HTML to contain %q", want)
		}
	}
}

func TestWriteDispatch(t *testing.T) {
	tests := []struct {
		format      ReportFormat
		contentType string
		prefix      string
	}{
		{FormatCSV, "text/csv", "Metric,Value,Unit"},
		{FormatJSON, "application/json", "{"},
		{FormatHTML, "text/html; charset=utf-8", "\n<!DOCTYPE html>"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			r := New(tt.format)
			report := r.Generate(testSnapshot(), testInfra(), nil, nil)

			var buf bytes.Buffer
			if err := r.Write(report, &buf); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("Expected output starting with %q, got %q", tt.prefix, buf.String()[:20])
			}
			if r.ContentType() != tt.contentType {
				t.Errorf("Expected content type %s, got %s", tt.contentType, r.ContentType())
			}
			if r.Filename() != "eco_dashboard_data."+string(tt.format) {
				t.Errorf("Unexpected filename %s", r.Filename())
			}
		})
	}

	if err := New("pdf").Write(&Report{Snapshot: testSnapshot()}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
