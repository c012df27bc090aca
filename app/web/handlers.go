package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/tasklist/app/web/enums"
	"github.com/umputun/tasklist/app/web/persistence"
)

// taskForm is the add/edit form of the UI, ID is set when an existing task is edited
type taskForm struct {
	ID   string `schema:"id"`
	Text string `schema:"text"`
}

// handleIndex renders the main page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data, err := s.viewData(r, s.getFilterMode(r))
	if err != nil {
		log.Printf("[ERROR] failed to load tasks for page: %v", err)
		http.Error(w, "Failed to load tasks", http.StatusInternalServerError)
		return
	}
	data.CurrentYear = time.Now().Year()

	s.render(w, "base.html", "base", data)
}

// handleTasksPartial returns the task list partial, used by search
func (s *Server) handleTasksPartial(w http.ResponseWriter, r *http.Request) {
	s.renderTasks(w, r, s.getFilterMode(r))
}

// handleTaskForm returns an empty form, used to cancel editing
func (s *Server) handleTaskForm(w http.ResponseWriter, r *http.Request) {
	s.renderPartials(w, s.newTemplateData(r), "task-form")
}

// handleEditForm returns the form filled with the task to edit
func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := s.viewTaskID(w, r)
	if !ok {
		return
	}

	task, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeViewError(w, err, "Failed to load task", id)
		return
	}

	data := s.newTemplateData(r)
	data.Editing = &task
	s.renderPartials(w, data, "task-form")
}

// handleSubmitTask creates a task, or updates the text of the edited one if the form has an id
func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	var form taskForm
	if err := s.formDecoder.Decode(&form, r.PostForm); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(form.Text)
	if text == "" {
		http.Error(w, "Task text is required", http.StatusBadRequest)
		return
	}

	if form.ID == "" {
		task, err := s.store.Create(r.Context(), text)
		if err != nil {
			log.Printf("[ERROR] failed to create task: %v", err)
			http.Error(w, "Failed to create task", http.StatusInternalServerError)
			return
		}
		log.Printf("[INFO] task %d created", task.ID)
	} else {
		id, err := strconv.ParseInt(form.ID, 10, 64)
		if err != nil {
			http.Error(w, "Invalid task ID", http.StatusBadRequest)
			return
		}
		if _, err := s.store.Update(r.Context(), id, persistence.TaskPatch{Text: &text}); err != nil {
			s.writeViewError(w, err, "Failed to update task", id)
			return
		}
		log.Printf("[INFO] task %d updated", id)
	}

	// list is re-read from the store, form is reset out of band
	s.renderTasks(w, r, s.getFilterMode(r), "task-form")
}

// handleToggleTask flips the completed flag of a task
func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.viewTaskID(w, r)
	if !ok {
		return
	}

	task, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeViewError(w, err, "Failed to toggle task", id)
		return
	}
	completed := !task.Completed
	if _, err := s.store.Update(r.Context(), id, persistence.TaskPatch{Completed: &completed}); err != nil {
		s.writeViewError(w, err, "Failed to toggle task", id)
		return
	}

	s.renderTasks(w, r, s.getFilterMode(r))
}

// handleRemoveTask deletes a single task
func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.viewTaskID(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeViewError(w, err, "Failed to delete task", id)
		return
	}
	log.Printf("[INFO] task %d deleted", id)

	s.renderTasks(w, r, s.getFilterMode(r))
}

// handleClearTasks deletes all tasks with a single store call
func (s *Server) handleClearTasks(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.DeleteAll(r.Context())
	if err != nil {
		log.Printf("[ERROR] failed to clear tasks: %v", err)
		http.Error(w, "Failed to clear tasks", http.StatusInternalServerError)
		return
	}
	log.Printf("[INFO] %d tasks deleted", deleted)

	// reset the form too, it may hold a task being edited
	s.renderTasks(w, r, s.getFilterMode(r), "task-form")
}

// handleFilterToggle cycles filter modes: all -> active -> completed -> all
func (s *Server) handleFilterToggle(w http.ResponseWriter, r *http.Request) {
	next := s.getFilterMode(r).Next()
	s.setPrefCookie(w, "filter-mode", next.String())
	s.renderTasks(w, r, next, "filter-button")
}

// handleThemeToggle toggles light and dark themes
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	next := enums.ThemeDark
	if s.getTheme(r) == enums.ThemeDark {
		next = enums.ThemeLight
	}
	s.setPrefCookie(w, "theme", next.String())

	// trigger full page refresh for theme change
	w.Header().Set("HX-Refresh", "true")
	w.WriteHeader(http.StatusOK)
}

// renderTasks re-reads tasks and renders the list partial followed by optional out-of-band partials
func (s *Server) renderTasks(w http.ResponseWriter, r *http.Request, mode enums.FilterMode, oob ...string) {
	data, err := s.viewData(r, mode)
	if err != nil {
		log.Printf("[ERROR] failed to load tasks: %v", err)
		http.Error(w, "Failed to load tasks", http.StatusInternalServerError)
		return
	}
	if len(oob) > 0 {
		data.IsOOB = true
	}
	s.renderPartials(w, data, append([]string{"tasks-list"}, oob...)...)
}

// viewData loads tasks for the filter mode and search term from the request, counters cover all tasks
func (s *Server) viewData(r *http.Request, mode enums.FilterMode) (TemplateData, error) {
	search := strings.TrimSpace(r.FormValue("search"))
	tasks, err := s.store.List(r.Context(), persistence.Filter{Completed: completedFilter(mode), Search: search})
	if err != nil {
		return TemplateData{}, err
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		return TemplateData{}, err
	}

	data := s.newTemplateData(r)
	data.FilterMode = mode
	data.Search = search
	data.Tasks = tasks
	data.TotalCount = stats.Total
	data.CompletedCount = stats.Completed
	return data, nil
}

// newTemplateData creates a TemplateData with common fields populated from request
func (s *Server) newTemplateData(r *http.Request) TemplateData {
	return TemplateData{
		BaseURL:    s.baseURL,
		Theme:      s.getTheme(r),
		FilterMode: s.getFilterMode(r),
		Version:    shortVersion(s.version),
	}
}

// viewTaskID parses the {id} path value, writes plain text 400 if it is not an integer
func (s *Server) viewTaskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid task ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeViewError writes plain text error for HTMX requests, 404 for missing tasks
func (s *Server) writeViewError(w http.ResponseWriter, err error, msg string, id int64) {
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}
	log.Printf("[ERROR] %s %d: %v", strings.ToLower(msg), id, err)
	http.Error(w, msg, http.StatusInternalServerError)
}
