package email

// Email templates using HTML

const reportSummaryTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 640px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #0f766e, #115e59); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
        .footer { background: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
        .meta { background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0; }
        .meta-row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid #e5e7eb; }
        .meta-row:last-child { border-bottom: none; }
        .meta-label { color: #6b7280; }
        .meta-value { font-weight: 600; }
        table.kpi { width: 100%; border-collapse: collapse; margin: 20px 0; }
        table.kpi th { text-align: left; font-size: 12px; text-transform: uppercase; color: #6b7280; padding: 8px; border-bottom: 2px solid #e5e7eb; }
        table.kpi td { padding: 8px; border-bottom: 1px solid #e5e7eb; font-size: 14px; }
        .pass { color: #047857; font-weight: 600; }
        .miss { color: #b91c1c; font-weight: 600; }
        .none { color: #6b7280; }
        .warning { background: #fef3c7; border: 1px solid #f59e0b; padding: 15px; border-radius: 8px; margin: 20px 0; color: #92400e; }
        .attachment { background: #ecfdf5; border: 1px solid #10b981; padding: 15px; border-radius: 8px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.OrgName}}</h1>
        <p style="margin: 5px 0 0 0; opacity: 0.9;">Driver Performance Analytics</p>
    </div>
    <div class="content">
        <h2>{{.Title}}</h2>
        <p>Reporting period: <strong>{{.PeriodLabel}}</strong></p>
        {{if .GroupName}}<p>Group: <strong>{{.GroupName}}</strong></p>{{end}}
        {{if .DriverName}}<p>Driver: <strong>{{.DriverName}}</strong></p>{{end}}

        {{if .NoData}}
        <div class="warning">{{.NoDataReason}}</div>
        {{else}}
        <div class="meta">
            <div class="meta-row">
                <span class="meta-label">Qualified drivers</span>
                <span class="meta-value">{{.Qualified}} of {{.Total}}</span>
            </div>
            <div class="meta-row">
                <span class="meta-label">Minimum distance</span>
                <span class="meta-value">{{.MinimumKm}} km</span>
            </div>
        </div>

        {{if .DriverRows}}
        <table class="kpi">
            <tr><th>KPI</th><th>Value</th><th>Change</th><th>Target</th><th>Status</th></tr>
            {{range .DriverRows}}
            <tr>
                <td>{{.Label}}</td>
                <td>{{.Value}}</td>
                <td>{{.Change}}</td>
                <td>{{.Target}}</td>
                <td class="{{.StatusClass}}">{{.StatusText}}</td>
            </tr>
            {{end}}
        </table>
        {{else}}
        <table class="kpi">
            <tr><th>KPI</th><th>Value</th><th>Target</th><th>Status</th></tr>
            {{range .SummaryRows}}
            <tr>
                <td>{{.Label}}</td>
                <td>{{.Value}}</td>
                <td>{{.Target}}</td>
                <td class="{{.StatusClass}}">{{.StatusText}}</td>
            </tr>
            {{end}}
        </table>
        {{end}}
        {{end}}

        <div class="attachment">
            The full report is attached as <strong>{{.Filename}}</strong>.
        </div>
    </div>
    <div class="footer">
        <p>&copy; 2025 {{.OrgName}}. All rights reserved.</p>
        <p>This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`
