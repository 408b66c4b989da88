package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/acremote/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"utc": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AC Remote Receiver</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.none { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>AC Remote Receiver</h1>

<h2>Last Command</h2>
<table>
{{with .Last}}<tr><th>Power</th><td id="power" class="{{if .Command.On}}on{{else}}off{{end}}">{{if .Command.On}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Mode</th><td>{{.Command.Mode}}</td></tr>
{{if .Command.On}}<tr><th>Fan</th><td>{{.Command.Fan}}</td></tr>
{{if .Command.Temperature}}<tr><th>Temperature</th><td>{{.Command.Temperature}}°C</td></tr>{{end}}{{end}}
<tr><th>Record</th><td>{{.Record}}</td></tr>
<tr><th>Received</th><td>{{utc .ReceivedAt}}</td></tr>
<tr><th>ID</th><td>{{.ID}}</td></tr>
{{else}}<tr><th>Power</th><td id="power" class="none">nothing received yet</td></tr>
{{end}}</table>

<h2>Counts</h2>
<table>
<tr><th>Bursts</th><td>{{.Counts.Bursts}}</td></tr>
<tr><th>Accepted</th><td>{{.Counts.Accepted}}</td></tr>
<tr><th>Malformed</th><td>{{.Counts.Malformed}}</td></tr>
<tr><th>Checksum failed</th><td>{{.Counts.ChecksumFailed}}</td></tr>
<tr><th>Unknown code</th><td>{{.Counts.UnknownCode}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{utc .StartTime}}</td></tr>
<tr><th>Receiver</th><td>{{.Config.Chip}} line {{.Config.RxLine}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Idle</th><td>{{.Config.IdleMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
