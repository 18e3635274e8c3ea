package web

import (
	"html/template"
	"io"

	"github.com/sweeney/door-sensor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"doorClass": func(door string) string {
		switch door {
		case "OPEN":
			return "open"
		case "CLOSED":
			return "closed"
		}
		return "unknown"
	},
	"yesNo": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Door Sensor: {{.Description}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.open { color: #c00; font-weight: bold; }
.closed { color: green; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>{{.Description}}</h1>

<h2>State</h2>
<table>
<tr><th>Door</th><td id="door" class="{{doorClass .Door}}">{{.Door}}</td></tr>
<tr><th>Phase</th><td id="phase">{{.Phase}}</td></tr>
<tr><th>Indicator</th><td>{{.Indicator}}</td></tr>
<tr><th>Paused</th><td>{{yesNo .Paused}}</td></tr>
<tr><th>Sleep allowed</th><td>{{yesNo .SleepAllowed}}</td></tr>
<tr><th>Ready</th><td>{{yesNo .Ready}}</td></tr>
</table>

<h2>Notifications</h2>
<table>
<tr><th>Methods</th><td>{{range $i, $m := .Config.Methods}}{{if $i}}, {{end}}{{$m}}{{end}}</td></tr>
<tr><th>Open delay</th><td>{{.Config.NotifyDelayMinutes}} min</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}">{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .MQTT.Broker}}<tr><th>Broker</th><td>{{.MQTT.Broker}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Opened</th><td>{{.Counts.Opened}}</td></tr>
<tr><th>Closed</th><td>{{.Counts.Closed}}</td></tr>
<tr><th>Notified open</th><td>{{.Counts.NotifiedOpen}}</td></tr>
<tr><th>Notified close</th><td>{{.Counts.NotifiedClose}}</td></tr>
<tr><th>Pause toggles</th><td>{{.Counts.PauseToggles}}</td></tr>
<tr><th>Pause auto clear</th><td>{{.Counts.PauseAutoClear}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td id="uptime">{{.Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Short sleep</th><td>{{if eq .Config.ShortSleepMs 0}}disabled{{else}}{{.Config.ShortSleepMs}}ms{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/api/status">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, report status.StatusInner) error {
	return indexTmpl.Execute(w, report)
}
