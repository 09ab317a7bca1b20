package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deploypilot/node-agent/internal/k8sdriver"
)

const defaultTailLines = "200"

// handleLogs serves a deployment's logs, either a single captured
// snapshot or a streamed tail when ?follow=true, both thin framing over
// `kubectl logs` per spec §1.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	app := chi.URLParam(r, "app")
	if err := k8sdriver.ValidateName("namespace", namespace); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := k8sdriver.ValidateName("appName", app); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tail := r.URL.Query().Get("tail")
	if tail == "" {
		tail = defaultTailLines
	}

	if r.URL.Query().Get("follow") == "true" {
		s.streamLogs(w, r, namespace, app, tail)
		return
	}

	res := s.driver.ExecuteCommand(r.Context(), "logs", "deployment/"+app, "-n", namespace, "--tail="+tail)
	if !res.Success {
		http.Error(w, res.Error, http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(res.Stdout))
}

// streamLogs flushes each log line to the client as it's produced,
// until the client disconnects or the underlying kubectl process exits.
func (s *Server) streamLogs(w http.ResponseWriter, r *http.Request, namespace, app, tail string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	_, err := s.driver.StreamLogs(r.Context(), namespace, app, tail, func(line string) {
		fmt.Fprintln(w, line)
		flusher.Flush()
	})
	if err != nil {
		s.log.V(1).Info("log stream ended", "namespace", namespace, "app", app, "error", err.Error())
	}
}
