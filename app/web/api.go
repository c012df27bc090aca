package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/umputun/tasklist/app/web/enums"
	"github.com/umputun/tasklist/app/web/persistence"
)

// CreateTaskRequest is the JSON body for POST /api/tasks
type CreateTaskRequest struct {
	Text string `json:"text" validate:"required" jsonschema:"minLength=1"`
}

// listQuery is the optional filter of GET /api/tasks
type listQuery struct {
	Status string `schema:"status"`
	Search string `schema:"search"`
}

const errTextRequired = "Task text is required and must be a non-empty string"

// handleListTasks returns all tasks, newest first
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var q listQuery
	if err := s.formDecoder.Decode(&q, r.URL.Query()); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid query parameters")
		return
	}

	filter := persistence.Filter{Search: strings.TrimSpace(q.Search)}
	if q.Status != "" {
		mode, err := enums.ParseFilterMode(strings.ToLower(q.Status))
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid status %q, expected all, active or completed", q.Status))
			return
		}
		filter.Completed = completedFilter(mode)
	}

	tasks, err := s.store.List(r.Context(), filter)
	if err != nil {
		log.Printf("[ERROR] failed to list tasks: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to fetch tasks")
		return
	}
	if tasks == nil {
		tasks = []persistence.Task{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

// handleCreateTask creates a new task from {"text": "..."}
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[DEBUG] invalid create request body: %v", err)
		s.writeJSONError(w, http.StatusBadRequest, errTextRequired)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validate.Struct(req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, errTextRequired)
		return
	}

	task, err := s.store.Create(r.Context(), req.Text)
	if err != nil {
		log.Printf("[ERROR] failed to create task: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to create task")
		return
	}
	log.Printf("[INFO] task %d created", task.ID)
	s.writeJSON(w, http.StatusCreated, task)
}

// handleDeleteAllTasks removes every task in one call
func (s *Server) handleDeleteAllTasks(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteAll(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to delete all tasks: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to delete tasks")
		return
	}
	log.Printf("[INFO] %d tasks deleted", deleted)
	s.writeJSON(w, http.StatusOK, map[string]any{"message": "All tasks deleted successfully", "deleted": deleted})
}

// handleGetTask returns a single task
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	task, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Failed to fetch task", id)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

// handleUpdateTask applies a partial update, only text and completed fields are accepted
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	patch, err := s.decodePatch(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	task, err := s.store.Update(r.Context(), id, patch)
	if err != nil {
		s.writeStoreError(w, err, "Failed to update task", id)
		return
	}
	log.Printf("[INFO] task %d updated", task.ID)
	s.writeJSON(w, http.StatusOK, task)
}

// handleDeleteTask removes a single task
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.taskID(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Failed to delete task", id)
		return
	}
	log.Printf("[INFO] task %d deleted", id)
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

// handleExportTasks returns the whole collection as a downloadable json or yaml document
func (s *Server) handleExportTasks(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "yaml" {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid format %q, expected json or yaml", format))
		return
	}

	tasks, err := s.store.List(r.Context(), persistence.Filter{})
	if err != nil {
		log.Printf("[ERROR] failed to list tasks for export: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to export tasks")
		return
	}
	if tasks == nil {
		tasks = []persistence.Task{}
	}

	var body []byte
	contentType := "application/json"
	if format == "yaml" {
		contentType = "application/yaml"
		body, err = yaml.Marshal(tasks)
	} else {
		body, err = json.MarshalIndent(tasks, "", "  ")
	}
	if err != nil {
		log.Printf("[ERROR] failed to encode tasks as %s: %v", format, err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to export tasks")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tasks.%s"`, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("[WARN] failed to write export: %v", err)
	}
}

// handleSchema returns JSON schemas of the API payloads
func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]*jsonschema.Schema{
		"task":       jsonschema.Reflect(&persistence.Task{}),
		"createTask": jsonschema.Reflect(&CreateTaskRequest{}),
		"taskPatch":  jsonschema.Reflect(&taskPatchSchema{}),
	})
}

// taskPatchSchema documents the update body, mirrors persistence.TaskPatch
type taskPatchSchema struct {
	Text      *string `json:"text,omitempty" jsonschema:"minLength=1"`
	Completed *bool   `json:"completed,omitempty"`
}

// decodePatch reads TaskPatch from the request body, rejecting unknown fields, empty and blank-text patches
func (s *Server) decodePatch(r *http.Request) (persistence.TaskPatch, error) {
	var patch persistence.TaskPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			return persistence.TaskPatch{}, fmt.Errorf("invalid update body: %s, only text and completed can be updated",
				strings.TrimPrefix(err.Error(), "json: "))
		}
		return persistence.TaskPatch{}, errors.New("invalid update body")
	}
	if patch.IsEmpty() {
		return persistence.TaskPatch{}, errors.New("nothing to update, expected text and/or completed")
	}
	if patch.Text != nil {
		trimmed := strings.TrimSpace(*patch.Text)
		patch.Text = &trimmed
	}
	if err := s.validate.Struct(patch); err != nil {
		return persistence.TaskPatch{}, errors.New("task text must be a non-empty string")
	}
	return patch, nil
}

// taskID parses the {id} path value, writes 400 and returns false if it is not an integer
func (s *Server) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid task ID")
		return 0, false
	}
	return id, true
}

// writeStoreError maps store errors to 404 for missing tasks and 500 for everything else
func (s *Server) writeStoreError(w http.ResponseWriter, err error, msg string, id int64) {
	if errors.Is(err, persistence.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "Task not found")
		return
	}
	log.Printf("[ERROR] %s %d: %v", strings.ToLower(msg), id, err)
	s.writeJSONError(w, http.StatusInternalServerError, msg)
}

// completedFilter converts filter mode to the store's completed filter, nil for all
func completedFilter(mode enums.FilterMode) *bool {
	switch mode {
	case enums.FilterModeActive:
		v := false
		return &v
	case enums.FilterModeCompleted:
		v := true
		return &v
	default:
		return nil
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[WARN] failed to encode JSON error response: %v", err)
	}
}
