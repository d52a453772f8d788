package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #1e8e3e 0%, #0d5c2a 100%);
            color: white;
            padding: 40px;
        }
        .header h1 {
            font-size: 2.4em;
            margin-bottom: 10px;
        }
        .header .meta {
            opacity: 0.95;
        }
        .stale {
            background: #fef7e0;
            color: #b06000;
            padding: 12px 40px;
            font-weight: 600;
        }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(240px, 1fr));
            gap: 20px;
            padding: 40px;
        }
        .summary-card {
            background: white;
            padding: 25px;
            border-radius: 12px;
            border: 2px solid #e8eaed;
        }
        .summary-card h3 {
            color: #5f6368;
            font-size: 0.85em;
            text-transform: uppercase;
            letter-spacing: 1.5px;
            margin-bottom: 12px;
        }
        .summary-card .value {
            font-size: 2.2em;
            font-weight: 700;
            color: #202124;
        }
        .summary-card .unit {
            color: #5f6368;
        }
        .summary-card.consumption { border-left: 6px solid #326ce5; }
        .summary-card.emissions { border-left: 6px solid #ea4335; }
        .summary-card.savings { border-left: 6px solid #34a853; }
        .summary-card.trees { border-left: 6px solid #188038; }
        .section {
            padding: 30px 40px;
        }
        .section h2 {
            font-size: 1.6em;
            margin-bottom: 20px;
            color: #202124;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th, td {
            padding: 10px 14px;
            text-align: left;
            border-bottom: 1px solid #e8eaed;
        }
        th {
            background: #f8f9fa;
            color: #5f6368;
            font-size: 0.85em;
            text-transform: uppercase;
        }
        tr.peak td {
            font-weight: 700;
            color: #ea4335;
        }
        .footer {
            background: #202124;
            color: #9aa0a6;
            text-align: center;
            padding: 20px;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Title}}</h1>
            <div class="meta">
                <p><strong>Source:</strong> {{.Snapshot.Source}} | <strong>Collected:</strong> {{.Snapshot.CollectedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
                <p><strong>Generated:</strong> {{.GeneratedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
            </div>
        </div>
        {{if .Snapshot.Stale}}
        <div class="stale">Live data unavailable. Showing the last known values.</div>
        {{end}}

        <div class="summary">
            <div class="summary-card consumption">
                <h3>Current Consumption</h3>
                <div class="value">{{printf "%.0f" .Snapshot.Metrics.CurrentConsumption}}</div>
                <div class="unit">kWh</div>
            </div>
            <div class="summary-card emissions">
                <h3>CO2 Emissions</h3>
                <div class="value">{{printf "%.0f" .Snapshot.Metrics.AnnualEmissions}}</div>
                <div class="unit">kg/year</div>
            </div>
            <div class="summary-card savings">
                <h3>Potential Savings</h3>
                <div class="value">{{printf "%.2f" .Snapshot.Metrics.PotentialSavings}}</div>
                <div class="unit">BRL/year</div>
            </div>
            <div class="summary-card trees">
                <h3>Tree Equivalent</h3>
                <div class="value">{{.Snapshot.Metrics.TreeEquivalent}}</div>
                <div class="unit">trees</div>
            </div>
        </div>

        <div class="section">
            <h2>Infrastructure</h2>
            <table>
                <tr><th>Active Workstations</th><td>{{.Snapshot.State.ActiveWorkstations}} / {{.Infrastructure.TotalWorkstations}}</td></tr>
                <tr><th>Idle Workstations</th><td>{{.IdleWorkstations}}</td></tr>
                <tr><th>Active Servers</th><td>{{.Snapshot.State.ActiveServers}} / {{.Infrastructure.TotalServers}}</td></tr>
                <tr><th>Emission Factor</th><td>{{printf "%.4f" .Infrastructure.EmissionFactor}} kg CO2/kWh</td></tr>
            </table>
        </div>

        {{if .Trend}}
        <div class="section">
            <h2>{{title .Trend.Period}} Trend</h2>
            <table>
                <thead>
                    <tr><th>Period</th><th>Utilization</th><th>Consumption (kWh)</th><th>CO2 (kg)</th><th>Cost</th></tr>
                </thead>
                <tbody>
                    {{$peak := .Trend.PeakIndex}}
                    {{range .Trend.Points}}
                    <tr{{if eq .Index $peak}} class="peak"{{end}}>
                        <td>{{.Label}}</td>
                        <td>{{percent .Utilization}}</td>
                        <td>{{printf "%.2f" .ConsumptionKWh}}</td>
                        <td>{{printf "%.2f" .CO2Kg}}</td>
                        <td>{{printf "%.2f" .Cost}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        {{if .Sectors}}
        <div class="section">
            <h2>By Sector</h2>
            <table>
                <thead>
                    <tr><th>Sector</th><th>Workstations</th><th>Consumption (kW)</th><th>Annual CO2 (kg)</th></tr>
                </thead>
                <tbody>
                    {{range .Sectors}}
                    <tr>
                        <td>{{.Name}}</td>
                        <td>{{.Workstations}}</td>
                        <td>{{printf "%.2f" .ConsumptionKW}}</td>
                        <td>{{printf "%.2f" .AnnualCO2Kg}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer">
            <p>Generated by <strong>ecoti</strong></p>
        </div>
    </div>
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.0f%%", f*100)
	},
}).Parse(htmlTemplate))

// GenerateHTML creates an HTML report
func GenerateHTML(report *Report, writer io.Writer) error {
	if err := reportTemplate.Execute(writer, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}
