// Package webview serves one pipeline read as a browsable web page.
package webview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"time"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// shutdownGrace bounds how long in-flight requests may drain on stop.
const shutdownGrace = 5 * time.Second

// indexTemplate renders the mermaid source into a page that draws itself
// client side. Mermaid reads the text content of the pre element, so the
// HTML escaping applied by the template survives rendering.
const indexTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Pipeline Graph</title>
<style>
body { font-family: sans-serif; margin: 1.5rem; }
pre.mermaid { text-align: center; }
pre.mermaid svg { max-width: 100%; height: auto; }
</style>
</head>
<body>
<p>Pipeline: {{.Scope}} (Tenant: {{.Tenant}})</p>
<pre class="mermaid">
{{.Mermaid}}
</pre>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true, maxTextSize: 200000 });
</script>
</body>
</html>
`

var indexTmpl = template.Must(template.New("index").Parse(indexTemplate))

type indexData struct {
	Scope   string
	Tenant  string
	Mermaid string
}

// Server serves a rendered pipeline graph over HTTP. The document and the
// mermaid source are fixed at construction; restart the server to pick up
// a fresh read.
type Server struct {
	cfg     *contract.Config
	doc     *schema.GraphDocument
	mermaid string
	http    *http.Server
}

// NewServer wires the routes for one graph document. The mermaid source is
// the same text the mermaid output format writes.
func NewServer(cfg *contract.Config, doc *schema.GraphDocument, mermaidSource string) *Server {
	s := &Server{cfg: cfg, doc: doc, mermaid: mermaidSource}

	router := mux.NewRouter()
	router.HandleFunc("/", s.getIndex).Methods("GET")
	router.HandleFunc("/api/graph", s.getGraph).Methods("GET")
	router.HandleFunc("/healthz", s.getHealth).Methods("GET")

	addr := cfg.ServeAddr
	if addr == "" {
		addr = contract.DefaultServeAddr
	}
	s.http = &http.Server{
		Addr: addr,
		// Request log goes to stderr; stdout stays free for data output
		Handler: handlers.LoggingHandler(os.Stderr, router),
	}
	return s
}

// Addr returns the listen address the server binds to.
func (s *Server) Addr() string {
	return s.http.Addr
}

// Handler returns the routed handler, request logging included.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests with a
// short grace period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web viewer: %w", err)
	}
	return <-errCh
}

// getIndex serves the mermaid page.
func (s *Server) getIndex(w http.ResponseWriter, _ *http.Request) {
	scope := s.cfg.Site
	if s.cfg.Filter != "" {
		scope = fmt.Sprintf("%s (filter: %q)", s.cfg.Site, s.cfg.Filter)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{Scope: scope, Tenant: s.cfg.Tenant, Mermaid: s.mermaid}
	if err := indexTmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getGraph serves the same document the JSON output format writes.
func (s *Server) getGraph(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.doc); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// getHealth reports liveness.
func (s *Server) getHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
