package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tkingovr/reqguard/api"
)

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	stats, err := s.auditStore.Stats(r.Context())
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"Page":      "overview",
		"Stats":     stats,
		"ByFilter":  sortedCounts(stats.ByFilter),
		"ByCountry": sortedCounts(stats.ByCountry),
	}
	renderPage(w, "overview", data)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	records, err := s.auditStore.Query(r.Context(), api.QueryFilter{})
	if err != nil {
		http.Error(w, "failed to query audit log", http.StatusInternalServerError)
		return
	}

	// Newest first, capped at 100 rows.
	reverse(records)
	if len(records) > 100 {
		records = records[:100]
	}

	data := map[string]any{
		"Page":    "audit",
		"Records": records,
	}
	renderPage(w, "audit", data)
}

func (s *Server) handleAuditStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, cancel := s.auditStore.Subscribe(r.Context())
	defer cancel()
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case record, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: audit\ndata: %s\n\n", renderAuditRow(record))
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	if s.config == nil {
		http.Error(w, "no configuration loaded", http.StatusNotFound)
		return
	}
	out, err := s.config.MarshalYAML()
	if err != nil {
		http.Error(w, "failed to render config", http.StatusInternalServerError)
		return
	}
	data := map[string]any{
		"Page":       "config",
		"ConfigYAML": string(out),
	}
	renderPage(w, "config", data)
}

func (s *Server) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.auditStore.Stats(r.Context())
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAPIAudit(w http.ResponseWriter, r *http.Request) {
	filter, err := parseQueryFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := s.auditStore.Query(r.Context(), filter)
	if err != nil {
		http.Error(w, "failed to query audit log", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*api.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAPICheck(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		http.Error(w, "check is not enabled", http.StatusNotFound)
		return
	}

	var req api.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := s.checker.Evaluate(r.Context(), req)
	if err != nil {
		s.logger.Error("check failed", "error", err)
		http.Error(w, "evaluation error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseQueryFilter(r *http.Request) (api.QueryFilter, error) {
	q := r.URL.Query()
	f := api.QueryFilter{
		Method:   strings.ToUpper(q.Get("method")),
		ClientIP: q.Get("client_ip"),
		Country:  q.Get("country"),
		Filter:   q.Get("filter"),
		Outcome:  api.Outcome(q.Get("outcome")),
	}
	for name, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		if v := q.Get(name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return f, fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = t
		}
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return f, errors.New("invalid " + name)
			}
			*dst = n
		}
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type countEntry struct {
	Key   string
	Count int
}

// sortedCounts orders a count map by descending count, then key.
func sortedCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for k, v := range m {
		out = append(out, countEntry{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func reverse(records []*api.AuditRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}

func renderAuditRow(record *api.AuditRecord) string {
	status := ""
	if record.Status != 0 {
		status = strconv.Itoa(record.Status)
	}
	return fmt.Sprintf(
		`<tr class="border-b border-gray-700 hover:bg-gray-800"><td class="px-4 py-2 text-gray-400 text-xs">%s</td><td class="px-4 py-2">%s</td><td class="px-4 py-2 font-mono text-sm">%s</td><td class="px-4 py-2 font-mono text-xs">%s</td><td class="px-4 py-2">%s</td><td class="px-4 py-2"><span class="px-2 py-1 rounded text-xs font-bold %s">%s</span></td><td class="px-4 py-2 text-gray-400 text-xs">%s</td><td class="px-4 py-2 text-gray-400 text-xs">%s</td></tr>`,
		record.Timestamp.Format(time.RFC3339),
		escapeHTML(truncate(record.Method, 16)),
		escapeHTML(truncate(record.Path, 80)),
		escapeHTML(truncate(record.ClientIP, 64)),
		escapeHTML(record.Country),
		outcomeColor(record.Outcome),
		strings.ToUpper(string(record.Outcome)),
		escapeHTML(truncate(record.Filter, 32)),
		status,
	)
}

func outcomeColor(o api.Outcome) string {
	switch o {
	case api.OutcomeAccepted:
		return "bg-green-900 text-green-300"
	case api.OutcomeRejected:
		return "bg-red-900 text-red-300"
	case api.OutcomePreflight:
		return "bg-blue-900 text-blue-300"
	default:
		return "bg-gray-700 text-gray-300"
	}
}

// truncate shortens s to max runes and folds line breaks so a row stays
// on a single SSE data line.
func truncate(s string, max int) string {
	s = lineBreaks.Replace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func escapeHTML(s string) string {
	return template.HTMLEscapeString(s)
}
