package formset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/livefir/formset/internal/dom"
	"github.com/livefir/formset/internal/metrics"
)

const sessionCookieName = "formset-session"

// SubmitHandler receives the parsed formsets of a form submission. A
// returned FieldError or MultiError is reported per field.
type SubmitHandler func(submissions map[string]*Submission) error

// LiveConfig configures the live handler
type LiveConfig struct {
	Upgrader          *websocket.Upgrader
	SessionStore      SessionStore
	WebSocketDisabled bool
	MinifyDisabled    bool
	FormsetOptions    []Option
	Metrics           *metrics.Collector
	Logger            *log.Logger
	OnSubmit          SubmitHandler
	ValidateMin       bool
	ValidateMax       bool
}

// LiveOption is a functional option for configuring Mount
type LiveOption func(*LiveConfig)

// WithUpgrader sets a custom WebSocket upgrader
func WithUpgrader(upgrader *websocket.Upgrader) LiveOption {
	return func(c *LiveConfig) {
		c.Upgrader = upgrader
	}
}

// WithSessionStore sets a custom session store for HTTP clients
func WithSessionStore(store SessionStore) LiveOption {
	return func(c *LiveConfig) {
		c.SessionStore = store
	}
}

// WithWebSocketDisabled disables WebSocket support, forcing HTTP-only mode
func WithWebSocketDisabled() LiveOption {
	return func(c *LiveConfig) {
		c.WebSocketDisabled = true
	}
}

// WithMinifyDisabled sends rendered HTML without minification
func WithMinifyDisabled() LiveOption {
	return func(c *LiveConfig) {
		c.MinifyDisabled = true
	}
}

// WithFormsetOptions configures the controllers of every session page
func WithFormsetOptions(opts ...Option) LiveOption {
	return func(c *LiveConfig) {
		c.FormsetOptions = append(c.FormsetOptions, opts...)
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(collector *metrics.Collector) LiveOption {
	return func(c *LiveConfig) {
		c.Metrics = collector
	}
}

// WithLiveLogger sets the handler logger
func WithLiveLogger(logger *log.Logger) LiveOption {
	return func(c *LiveConfig) {
		c.Logger = logger
	}
}

// WithSubmitHandler handles form submissions, optionally enforcing the
// submitted min/max bounds first
func WithSubmitHandler(h SubmitHandler, validateMin, validateMax bool) LiveOption {
	return func(c *LiveConfig) {
		c.OnSubmit = h
		c.ValidateMin = validateMin
		c.ValidateMax = validateMax
	}
}

// UpdateResponse is sent after every action
type UpdateResponse struct {
	HTML string            `json:"html"`
	Meta *ResponseMetadata `json:"meta,omitempty"`
}

// ResponseMetadata describes the action that produced an update
type ResponseMetadata struct {
	Success  bool              `json:"success"`
	Errors   map[string]string `json:"errors"`
	Action   string            `json:"action,omitempty"`
	Events   []EventRecord     `json:"events,omitempty"`
	Formsets []State           `json:"formsets"`
}

// SubmitResponse is sent after a form submission
type SubmitResponse struct {
	Success     bool                   `json:"success"`
	Errors      map[string]string      `json:"errors"`
	Submissions map[string]*Submission `json:"submissions"`
}

// LiveHandler serves a page whose formsets are driven from the server:
// every client session owns a parsed copy of the page, actions mutate it
// and the re-rendered HTML is sent back over HTTP or WebSocket
type LiveHandler struct {
	page   []byte
	config LiveConfig
}

// Mount creates a live handler for page. The page is attached once up
// front so configuration errors surface here rather than per request.
func Mount(page []byte, opts ...LiveOption) (*LiveHandler, error) {
	config := LiveConfig{
		Upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		SessionStore: NewMemorySessionStore(),
		Metrics:      metrics.NewCollector(),
		Logger:       log.New(io.Discard, "", 0),
	}

	for _, opt := range opts {
		opt(&config)
	}

	if _, err := AttachReader(bytes.NewReader(page), config.FormsetOptions...); err != nil {
		return nil, fmt.Errorf("failed to mount page: %w", err)
	}

	return &LiveHandler{page: page, config: config}, nil
}

// Metrics returns the handler's metrics collector
func (h *LiveHandler) Metrics() *metrics.Collector {
	return h.config.Metrics
}

func (h *LiveHandler) newSession(id string) (*Session, error) {
	s := &Session{ID: id, errors: make(map[string]string)}

	opts := append([]Option{}, h.config.FormsetOptions...)
	opts = append(opts, WithListener(func(ev Event) {
		s.record(ev)
		h.recordEvent(ev)
	}))

	page, err := AttachReader(bytes.NewReader(h.page), opts...)
	if err != nil {
		h.config.Metrics.IncrementAttachError()
		return nil, err
	}
	s.page = page

	h.config.Metrics.IncrementFormsetAttached(len(page.Formsets()))
	h.config.Metrics.IncrementSessionStarted()
	return s, nil
}

func (h *LiveHandler) recordEvent(ev Event) {
	switch ev.Kind {
	case EventCreated:
		h.config.Metrics.IncrementFormCreated()
	case EventAdded:
		h.config.Metrics.IncrementFormAdded()
	case EventDeleted:
		h.config.Metrics.IncrementFormDeleted()
	case EventDestroyed:
		h.config.Metrics.IncrementFormDestroyed()
	}
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.config.WebSocketDisabled {
		w.Header().Set("X-Formset-WebSocket", "disabled")
	} else {
		w.Header().Set("X-Formset-WebSocket", "enabled")
	}

	if websocket.IsWebSocketUpgrade(r) {
		if h.config.WebSocketDisabled {
			http.Error(w, "WebSocket is disabled on this endpoint", http.StatusBadRequest)
			return
		}
		h.handleWebSocket(w, r)
	} else {
		h.handleHTTP(w, r)
	}
}

func (h *LiveHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.config.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.config.Logger.Printf("LIVE: WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.config.Logger.Printf("LIVE: client connected from %s", conn.RemoteAddr())

	// Each connection edits its own copy of the page
	s, err := h.newSession(generateSessionID())
	if err != nil {
		h.config.Logger.Printf("LIVE: failed to attach page: %v", err)
		return
	}
	defer h.config.Metrics.IncrementSessionEnded()

	if err := h.sendUpdate(conn, s, ""); err != nil {
		h.config.Logger.Printf("LIVE: failed to send initial page: %v", err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.config.Logger.Printf("LIVE: WebSocket error: %v", err)
			}
			break
		}

		msg, err := decodeMessage(data)
		if err != nil {
			h.config.Logger.Printf("LIVE: failed to parse message: %v", err)
			continue
		}

		if err := h.handleAction(msg, s); err != nil {
			h.config.Metrics.IncrementActionError()
			h.config.Logger.Printf("LIVE: action error: %v", err)
			s.mu.Lock()
			s.clearErrors()
			s.setError("_general", err.Error())
			s.mu.Unlock()
		}

		if err := h.sendUpdate(conn, s, msg.Action); err != nil {
			h.config.Logger.Printf("LIVE: WebSocket write failed: %v", err)
			break
		}
	}

	h.config.Logger.Printf("LIVE: client disconnected")
}

func (h *LiveHandler) sendUpdate(conn *websocket.Conn, s *Session, action string) error {
	response, err := h.buildResponse(s, action)
	if err != nil {
		return err
	}
	responseBytes, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	return writeUpdateWebSocket(conn, responseBytes)
}

func (h *LiveHandler) buildResponse(s *Session, action string) (UpdateResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	markup, err := s.page.HTML()
	if err != nil {
		return UpdateResponse{}, err
	}
	if !h.config.MinifyDisabled {
		markup = MinifyHTML(markup)
	}

	errs := s.getErrors()
	return UpdateResponse{
		HTML: markup,
		Meta: &ResponseMetadata{
			Success:  len(errs) == 0,
			Errors:   errs,
			Action:   action,
			Events:   s.drainEvents(),
			Formsets: s.page.Snapshot(),
		},
	}, nil
}

func (h *LiveHandler) session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	sessionID := getSessionID(r)
	if s := h.config.SessionStore.Get(sessionID); s != nil {
		return s, nil
	}

	s, err := h.newSession(sessionID)
	if err != nil {
		return nil, err
	}
	h.config.SessionStore.Set(sessionID, s)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

func (h *LiveHandler) handleHTTP(w http.ResponseWriter, r *http.Request) {
	// Capability check
	if r.Method == http.MethodHead {
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s, err := h.session(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Method == http.MethodGet {
		s.mu.Lock()
		markup, err := s.page.HTML()
		s.mu.Unlock()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, markup)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		h.handleSubmit(w, r, s)
		return
	}

	msg, err := parseActionFromHTTP(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.handleAction(msg, s); err != nil {
		h.config.Metrics.IncrementActionError()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	response, err := h.buildResponse(s, msg.Action)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleAction applies one action to the session page. Protocol errors are
// returned; validation problems are recorded as field errors.
func (h *LiveHandler) handleAction(msg message, s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearErrors()

	prefix, op := parseAction(msg.Action)
	fs, err := resolveFormset(s.page, prefix)
	if err != nil {
		return err
	}

	data := newActionData(msg.Data)
	if err := applyAction(fs, op, data); err != nil {
		var fieldErr FieldError
		var multiErr MultiError
		switch {
		case errors.As(err, &multiErr):
			for _, fe := range multiErr {
				s.setError(fe.Field, fe.Message)
			}
		case errors.As(err, &fieldErr):
			s.setError(fieldErr.Field, fieldErr.Message)
		case errors.Is(err, errUnknownAction):
			return err
		default:
			s.setError("_general", err.Error())
		}
	}

	h.config.Metrics.IncrementActionHandled()
	h.config.Metrics.IncrementCustomCounter("action." + op)
	h.config.Logger.Printf("LIVE: %s handled (formset=%s)", msg.Action, fs.Prefix())
	return nil
}

var errUnknownAction = errors.New("unknown action")

func resolveFormset(page *Page, prefix string) (*Formset, error) {
	if prefix == "" {
		formsets := page.Formsets()
		if len(formsets) != 1 {
			return nil, fmt.Errorf("action without formset prefix on a page with %d formsets; use 'prefix.action'", len(formsets))
		}
		return formsets[0], nil
	}
	fs, ok := page.Formset(prefix)
	if !ok {
		return nil, fmt.Errorf("unknown formset: %q", prefix)
	}
	return fs, nil
}

func findTarget(fs *Formset, t targetData) (Entry, error) {
	if t.Form != "" {
		if e, ok := fs.Form(t.Form); ok {
			return e, nil
		}
		return nil, FieldError{Field: "form", Message: fmt.Sprintf("no form %q in formset %q", t.Form, fs.Prefix())}
	}
	forms := fs.Forms()
	if *t.Index >= len(forms) {
		return nil, FieldError{Field: "index", Message: fmt.Sprintf("index %d out of range (%d forms)", *t.Index, len(forms))}
	}
	return forms[*t.Index], nil
}

// applyAction runs op against fs. Bounds are enforced the way the page
// does it: an action whose control is hidden is refused.
func applyAction(fs *Formset, op string, data *ActionData) error {
	switch op {
	case ActionAdd:
		if !fs.CanAdd() {
			return FieldError{Field: fs.Prefix(), Message: fmt.Sprintf("at most %d forms", fs.Counters().Max())}
		}
		_, err := fs.AddForm()
		return err

	case ActionDelete, ActionUndelete, ActionToggle:
		var t toggleData
		if err := data.BindAndValidate(&t, validate); err != nil {
			return err
		}
		entry, err := findTarget(fs, t.targetData)
		if err != nil {
			return err
		}
		deleting := op == ActionDelete || (op == ActionToggle && t.Checked)
		if deleting && !entry.IsDeleted() && !fs.CanDelete() {
			return FieldError{Field: fs.Prefix(), Message: fmt.Sprintf("at least %d forms", fs.Counters().Min())}
		}
		if deleting {
			entry.Delete()
		} else {
			entry.Undelete()
		}
		return nil

	case ActionSet:
		var sd setData
		if err := data.BindAndValidate(&sd, validate); err != nil {
			return err
		}
		field := dom.Find(fs.Root(), dom.WithName(sd.Name))
		if field == nil || !dom.IsField(field) {
			return FieldError{Field: "name", Message: fmt.Sprintf("no field %q in formset %q", sd.Name, fs.Prefix())}
		}
		dom.SetValue(field, sd.Value)
		return nil
	}

	return fmt.Errorf("%w: %q", errUnknownAction, op)
}

func (h *LiveHandler) handleSubmit(w http.ResponseWriter, r *http.Request, s *Session) {
	if err := r.ParseMultipartForm(10 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	var prefixes []string
	for _, fs := range s.page.Formsets() {
		prefixes = append(prefixes, fs.Prefix())
	}
	s.mu.Unlock()
	if len(prefixes) == 0 {
		prefixes = SubmittedPrefixes(r.PostForm)
	}

	response := SubmitResponse{
		Errors:      make(map[string]string),
		Submissions: make(map[string]*Submission),
	}
	for _, prefix := range prefixes {
		sub, err := ParseSubmission(r.PostForm, prefix)
		if err != nil {
			h.config.Metrics.IncrementSubmissionError()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := sub.Validate(h.config.ValidateMin, h.config.ValidateMax); err != nil {
			addFieldErrors(response.Errors, err)
		}
		response.Submissions[prefix] = sub
	}

	if len(response.Errors) == 0 && h.config.OnSubmit != nil {
		if err := h.config.OnSubmit(response.Submissions); err != nil {
			addFieldErrors(response.Errors, err)
		}
	}

	response.Success = len(response.Errors) == 0
	if !response.Success {
		h.config.Metrics.IncrementSubmissionError()
	}
	h.config.Metrics.IncrementSubmission()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func addFieldErrors(dst map[string]string, err error) {
	var multiErr MultiError
	var fieldErr FieldError
	switch {
	case errors.As(err, &multiErr):
		for _, fe := range multiErr {
			dst[fe.Field] = fe.Message
		}
	case errors.As(err, &fieldErr):
		dst[fieldErr.Field] = fieldErr.Message
	default:
		dst["_general"] = err.Error()
	}
}

// getSessionID extracts the session ID from cookie or header
func getSessionID(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	if sessionID := r.Header.Get("X-Formset-Session"); sessionID != "" {
		return sessionID
	}
	return generateSessionID()
}

// ApplyAction applies an action such as "items.add" or "items.delete" to
// page outside of a live session. Data carries the action's fields, e.g.
// {"index": 0} or {"name": "items-0-title", "value": "x"}.
func ApplyAction(page *Page, action string, data map[string]interface{}) error {
	prefix, op := parseAction(action)
	fs, err := resolveFormset(page, prefix)
	if err != nil {
		return err
	}
	if data == nil {
		data = make(map[string]interface{})
	}
	return applyAction(fs, op, newActionData(data))
}
