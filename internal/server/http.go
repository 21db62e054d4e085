// Package server exposes While program executions over HTTP.
package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/karupanerura/while-tools/internal/ast"
	"github.com/karupanerura/while-tools/internal/program"
	"github.com/karupanerura/while-tools/internal/types"
)

const basePath = "/v1/executions"

type ExecutionState string

const (
	ActiveState    ExecutionState = "ACTIVE"
	SucceededState ExecutionState = "SUCCEEDED"
	FailedState    ExecutionState = "FAILED"
)

type execution struct {
	mu sync.RWMutex

	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Source    string          `json:"source"`
	AST       string          `json:"ast,omitempty"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	State     ExecutionState  `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

type createExecutionRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type httpHandler struct {
	idBase     uint64
	executions sync.Map
}

// NewHTTPHandler returns a handler that runs every submitted program in its
// own goroutine. A program that never terminates keeps its goroutine.
func NewHTTPHandler() http.Handler {
	return &httpHandler{}
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == basePath {
		switch r.Method {
		case http.MethodGet:
			h.listExecutions(w, r)
		case http.MethodPost:
			h.createExecution(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if !strings.HasPrefix(r.URL.Path, basePath+"/") {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	executionID := strings.TrimPrefix(r.URL.Path, basePath+"/")
	if i := strings.LastIndexByte(executionID, ':'); i != -1 {
		customMethod := executionID[i+1:]
		executionID = executionID[:i]
		if customMethod == "cancel" && r.Method == http.MethodPost {
			h.cancelExecution(w, r, executionID)
			return
		}
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	h.getExecution(w, r, executionID)
}

func (h *httpHandler) createExecution(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	id := fmt.Sprintf("%012x", atomic.AddUint64(&h.idBase, 1))
	ex := &execution{
		ID:        id,
		Name:      req.Name,
		Source:    req.Source,
		StartTime: time.Now().UTC(),
		State:     ActiveState,
	}
	if ex.Name == "" {
		ex.Name = "execution-" + id
	}
	h.executions.Store(id, ex)

	go h.execute(ex)

	ex.mu.RLock()
	defer ex.mu.RUnlock()
	resJSON(w, http.StatusOK, ex)
}

func (h *httpHandler) execute(ex *execution) {
	p, err := program.Compile(ex.Name, ex.Source)
	if err != nil {
		h.fail(ex, err)
		return
	}

	ex.mu.Lock()
	ex.AST = ast.Render(p.AST())
	ex.mu.Unlock()

	state, err := p.Execute()
	if err != nil {
		h.fail(ex, err)
		return
	}

	result, err := json.Marshal(state)
	if err != nil {
		log.Printf("failed to encode execution result: %v", err)
		h.fail(ex, err)
		return
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	now := time.Now().UTC()
	ex.EndTime = &now
	ex.State = SucceededState
	ex.Result = result
}

func (h *httpHandler) fail(ex *execution, err error) {
	exception := types.AsException(err)
	payload, dumpErr := json.Marshal(exception.Exception())
	if dumpErr != nil {
		log.Printf("failed to encode execution error: %v", dumpErr)
		payload, _ = json.Marshal(err.Error())
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	now := time.Now().UTC()
	ex.EndTime = &now
	ex.State = FailedState
	ex.Error = payload
}

func (h *httpHandler) listExecutions(w http.ResponseWriter, r *http.Request) {
	results := []*execution{}
	h.executions.Range(func(key, value any) bool {
		results = append(results, value.(*execution))
		return true
	})
	for _, ex := range results {
		ex.mu.RLock()
	}
	defer func() {
		for _, ex := range results {
			ex.mu.RUnlock()
		}
	}()
	sort.Slice(results, func(i, j int) bool {
		if results[i].StartTime.Equal(results[j].StartTime) {
			return results[i].ID < results[j].ID
		}
		return results[i].StartTime.Before(results[j].StartTime)
	})

	resJSON(w, http.StatusOK, map[string][]*execution{"executions": results})
}

func (h *httpHandler) getExecution(w http.ResponseWriter, r *http.Request, id string) {
	ret, ok := h.executions.Load(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	ex := ret.(*execution)

	ex.mu.RLock()
	defer ex.mu.RUnlock()
	resJSON(w, http.StatusOK, ex)
}

// cancelExecution is not supported: the interpreter has no cancellation
// point.
func (h *httpHandler) cancelExecution(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := h.executions.Load(id); !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	http.Error(w, "Not Implemented", http.StatusNotImplemented)
}

func resJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("failed to encode response: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		log.Printf("w.Write: %v", err)
		return
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		log.Printf("io.WriteString: %v", err)
	}
}
