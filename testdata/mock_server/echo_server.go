// echo_server.go is a minimal HTTP upstream that echoes every request as
// JSON, for running reqguard locally.
// Usage: go run echo_server.go [-listen :4000]
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
)

type echoResponse struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   string              `json:"query,omitempty"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body,omitempty"`
}

func main() {
	listen := flag.String("listen", ":4000", "listen address")
	flag.Parse()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// Upstreams often announce themselves; reqguard strips it.
		w.Header().Set("X-Powered-By", "echo-server")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(echoResponse{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Headers: r.Header,
			Body:    string(body),
		})
	})

	log.Printf("echo_server: listening on %s", *listen)
	log.Fatal(http.ListenAndServe(*listen, nil))
}
