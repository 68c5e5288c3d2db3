package dashboard

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
)

var funcMap = template.FuncMap{
	"upper":        strings.ToUpper,
	"outcomeColor": outcomeColor,
}

var pageTmpls = map[string]*template.Template{
	"overview": template.Must(template.New("overview").Funcs(funcMap).Parse(navHTML + overviewHTML)),
	"audit":    template.Must(template.New("audit").Funcs(funcMap).Parse(navHTML + auditHTML)),
	"config":   template.Must(template.New("config").Funcs(funcMap).Parse(navHTML + configHTML)),
}

func renderPage(w http.ResponseWriter, name string, data map[string]any) {
	tmpl, ok := pageTmpls[name]
	if !ok {
		http.Error(w, "unknown page: "+name, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

const navHTML = `{{define "nav"}}
<nav class="bg-gray-900 border-b border-gray-700 px-6 py-4">
    <div class="flex items-center justify-between max-w-7xl mx-auto">
        <div class="flex items-center space-x-2">
            <span class="text-xl font-bold text-white">reqguard</span>
            <span class="text-xs bg-gray-700 text-gray-300 px-2 py-1 rounded">Dashboard</span>
        </div>
        <div class="flex space-x-4">
            <a href="/" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "overview"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Overview</a>
            <a href="/audit" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "audit"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Requests</a>
            <a href="/config" class="px-3 py-2 rounded hover:bg-gray-800 {{if eq .Page "config"}}bg-gray-800 text-white{{else}}text-gray-400{{end}}">Config</a>
        </div>
    </div>
</nav>
{{end}}`

const headHTML = `<!DOCTYPE html>
<html lang="en" class="dark">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>reqguard dashboard</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <script src="https://unpkg.com/htmx.org@2.0.4"></script>
    <script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>
    <style>body { background-color: #0f172a; color: #e2e8f0; }</style>
</head>
<body class="min-h-screen">
{{template "nav" .}}
<main class="max-w-7xl mx-auto px-6 py-8">`

const footHTML = `</main>
</body>
</html>`

const overviewHTML = headHTML + `
<h1 class="text-2xl font-bold mb-6">Overview</h1>
<div class="grid grid-cols-1 md:grid-cols-4 gap-6 mb-8">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <div class="text-gray-400 text-sm mb-1">Total Requests</div>
        <div class="text-3xl font-bold text-white">{{.Stats.TotalRequests}}</div>
    </div>
    <div class="bg-gray-900 border border-green-900 rounded-lg p-6">
        <div class="text-green-400 text-sm mb-1">Accepted</div>
        <div class="text-3xl font-bold text-green-300">{{.Stats.AcceptedCount}}</div>
    </div>
    <div class="bg-gray-900 border border-red-900 rounded-lg p-6">
        <div class="text-red-400 text-sm mb-1">Rejected</div>
        <div class="text-3xl font-bold text-red-300">{{.Stats.RejectedCount}}</div>
    </div>
    <div class="bg-gray-900 border border-blue-900 rounded-lg p-6">
        <div class="text-blue-400 text-sm mb-1">Preflight</div>
        <div class="text-3xl font-bold text-blue-300">{{.Stats.PreflightCount}}</div>
    </div>
</div>
<div class="grid grid-cols-1 md:grid-cols-2 gap-6">
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-lg font-bold mb-4">Rejections by Filter</h2>
        {{range .ByFilter}}
        <div class="flex justify-between py-1 border-b border-gray-800">
            <span class="text-gray-300 font-mono text-sm">{{.Key}}</span>
            <span class="text-gray-400">{{.Count}}</span>
        </div>
        {{else}}<p class="text-gray-500">No rejections yet</p>{{end}}
    </div>
    <div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
        <h2 class="text-lg font-bold mb-4">By Country</h2>
        {{range .ByCountry}}
        <div class="flex justify-between py-1 border-b border-gray-800">
            <span class="text-gray-300 font-mono text-sm">{{.Key}}</span>
            <span class="text-gray-400">{{.Count}}</span>
        </div>
        {{else}}<p class="text-gray-500">No data yet</p>{{end}}
    </div>
</div>
` + footHTML

const auditHTML = headHTML + `
<div class="flex justify-between items-center mb-6">
    <h1 class="text-2xl font-bold">Requests</h1>
    <span class="text-sm text-gray-400">Live updates via SSE</span>
</div>
<div class="bg-gray-900 border border-gray-700 rounded-lg overflow-hidden">
    <table class="w-full text-sm text-left">
        <thead class="bg-gray-800 text-gray-400 uppercase text-xs">
            <tr>
                <th class="px-4 py-3">Time</th>
                <th class="px-4 py-3">Method</th>
                <th class="px-4 py-3">Path</th>
                <th class="px-4 py-3">Client</th>
                <th class="px-4 py-3">Country</th>
                <th class="px-4 py-3">Outcome</th>
                <th class="px-4 py-3">Filter</th>
                <th class="px-4 py-3">Status</th>
            </tr>
        </thead>
        <tbody id="audit-table"
               hx-ext="sse"
               sse-connect="/audit/stream"
               sse-swap="audit"
               hx-swap="afterbegin">
            {{range .Records}}
            <tr class="border-b border-gray-700 hover:bg-gray-800">
                <td class="px-4 py-2 text-gray-400 text-xs">{{.Timestamp.Format "15:04:05"}}</td>
                <td class="px-4 py-2">{{.Method}}</td>
                <td class="px-4 py-2 font-mono text-sm max-w-xs truncate">{{.Path}}</td>
                <td class="px-4 py-2 font-mono text-xs">{{.ClientIP}}</td>
                <td class="px-4 py-2">{{.Country}}</td>
                <td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold {{outcomeColor .Outcome}}">{{upper (printf "%s" .Outcome)}}</span></td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{.Filter}}</td>
                <td class="px-4 py-2 text-gray-400 text-xs">{{if .Status}}{{.Status}}{{end}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
</div>
` + footHTML

const configHTML = headHTML + `
<h1 class="text-2xl font-bold mb-6">Active Configuration</h1>
<div class="bg-gray-900 border border-gray-700 rounded-lg p-6">
    <pre class="font-mono text-sm text-gray-300 whitespace-pre-wrap">{{.ConfigYAML}}</pre>
</div>
` + footHTML
