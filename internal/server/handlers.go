package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/dag"
	"github.com/stxkxs/strata/internal/shelltask"
)

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": s.cfg.Version,
		"name":    s.cfg.Name,
	})
}

// --- Runs ---

// activeRuns tracks in-progress pipeline runs with their cancel functions.
var activeRuns = struct {
	sync.Mutex
	runs map[string]context.CancelFunc
}{runs: make(map[string]context.CancelFunc)}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pipeline string `json:"pipeline"`
		Policy   string `json:"policy"` // "sequential" (default) or "parallel"
	}
	if err := decodeJSON(r, &body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if body.Pipeline == "" {
		jsonError(w, http.StatusBadRequest, "pipeline name is required")
		return
	}

	cfg, err := config.LoadPipeline(body.Pipeline)
	if err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}

	tasks, err := shelltask.BuildPipeline(cfg, nil)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	policy := dag.Sequential
	policyName := "sequential"
	if body.Policy == "parallel" {
		policy = dag.Parallel
		policyName = "parallel"
	}

	run, err := s.stateMgr.StartRun(cfg.Name, policyName)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	activeRuns.Lock()
	activeRuns.runs[run.ID] = cancel
	activeRuns.Unlock()

	leaves := shelltask.Leaves(cfg)

	go func() {
		defer func() {
			activeRuns.Lock()
			delete(activeRuns.runs, run.ID)
			activeRuns.Unlock()
		}()

		for _, leaf := range leaves {
			graph, err := dag.Build(tasks[leaf], dag.WithLogger(s.logger), dag.WithEventBus(s.eventBus))
			if err != nil {
				s.stateMgr.FailRun(err)
				return
			}
			if err := graph.Run(ctx, policy); err != nil {
				s.stateMgr.FailRun(err)
				return
			}
		}

		s.stateMgr.CompleteRun()
	}()

	jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"id":       run.ID,
		"status":   "running",
		"pipeline": cfg.Name,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, _ *http.Request) {
	runs, err := s.stateMgr.ListRuns(50)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.stateMgr.GetRun(id)
	if err != nil {
		jsonError(w, http.StatusNotFound, "run not found")
		return
	}
	jsonResponse(w, http.StatusOK, run)
}

// --- Graph ---

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	pipeline := r.PathValue("pipeline")

	cfg, err := config.LoadPipeline(pipeline)
	if err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}

	tasks, err := shelltask.BuildPipeline(cfg, nil)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	leaves := shelltask.Leaves(cfg)
	graphs := make([]map[string]interface{}, 0, len(leaves))
	for _, leaf := range leaves {
		graph, err := dag.Build(tasks[leaf])
		if err != nil {
			jsonError(w, http.StatusInternalServerError, fmt.Sprintf("build graph for %s: %s", leaf, err))
			return
		}

		nodes := make([]map[string]interface{}, 0, graph.Len())
		for _, n := range graph.Nodes() {
			var parent string
			if n.Parent != nil {
				parent = n.Parent.String()
			}
			nodes = append(nodes, map[string]interface{}{
				"id":     n.ID.String(),
				"done":   n.Done,
				"parent": parent,
			})
		}

		graphs = append(graphs, map[string]interface{}{
			"root":  leaf,
			"head":  graph.Head().String(),
			"nodes": nodes,
		})
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"pipeline": cfg.Name,
		"graphs":   graphs,
	})
}

// --- SSE events ---

func (s *Server) handleSSEEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	client := s.broker.Subscribe(r.Context(), clientID, r.URL.Query().Get("run_id"))

	data, _ := json.Marshal(map[string]string{"type": "connected", "client_id": clientID})
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()

	for ev := range client.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
