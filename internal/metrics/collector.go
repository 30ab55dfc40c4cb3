package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector provides simple built-in metrics collection with no external dependencies
type Collector struct {
	formsetMetrics    *FormsetMetrics
	operationCounters map[string]*int64
	mu                sync.RWMutex
	startTime         time.Time
}

// FormsetMetrics tracks formset lifecycle and live session activity
type FormsetMetrics struct {
	// Controllers
	FormsetsAttached int64 `json:"formsets_attached"`
	AttachErrors     int64 `json:"attach_errors"`

	// Form lifecycle events
	FormsCreated   int64 `json:"forms_created"`
	FormsAdded     int64 `json:"forms_added"`
	FormsDeleted   int64 `json:"forms_deleted"`
	FormsDestroyed int64 `json:"forms_destroyed"`

	// Live sessions
	SessionsStarted      int64 `json:"sessions_started"`
	ActiveSessions       int64 `json:"active_sessions"`
	MaxConcurrentSession int64 `json:"max_concurrent_sessions"`

	// Actions and submissions
	ActionsHandled   int64 `json:"actions_handled"`
	ActionErrors     int64 `json:"action_errors"`
	Submissions      int64 `json:"submissions"`
	SubmissionErrors int64 `json:"submission_errors"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		formsetMetrics: &FormsetMetrics{
			StartTime: now,
		},
		operationCounters: make(map[string]*int64),
		startTime:         now,
	}
}

// IncrementFormsetAttached records a formset controller initialization
func (c *Collector) IncrementFormsetAttached(n int) {
	atomic.AddInt64(&c.formsetMetrics.FormsetsAttached, int64(n))
}

// IncrementAttachError records a page whose formsets failed to initialize
func (c *Collector) IncrementAttachError() {
	atomic.AddInt64(&c.formsetMetrics.AttachErrors, 1)
}

// IncrementFormCreated records a form instantiated from the template
func (c *Collector) IncrementFormCreated() {
	atomic.AddInt64(&c.formsetMetrics.FormsCreated, 1)
}

// IncrementFormAdded records a form joining the counted set
func (c *Collector) IncrementFormAdded() {
	atomic.AddInt64(&c.formsetMetrics.FormsAdded, 1)
}

// IncrementFormDeleted records a form marked deleted
func (c *Collector) IncrementFormDeleted() {
	atomic.AddInt64(&c.formsetMetrics.FormsDeleted, 1)
}

// IncrementFormDestroyed records an extra form pruned at startup
func (c *Collector) IncrementFormDestroyed() {
	atomic.AddInt64(&c.formsetMetrics.FormsDestroyed, 1)
}

// IncrementSessionStarted records a new live session
func (c *Collector) IncrementSessionStarted() {
	atomic.AddInt64(&c.formsetMetrics.SessionsStarted, 1)
	currentActive := atomic.AddInt64(&c.formsetMetrics.ActiveSessions, 1)

	// Update max concurrent if needed
	for {
		max := atomic.LoadInt64(&c.formsetMetrics.MaxConcurrentSession)
		if currentActive <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.formsetMetrics.MaxConcurrentSession, max, currentActive) {
			break
		}
	}
}

// IncrementSessionEnded records a live session ending
func (c *Collector) IncrementSessionEnded() {
	atomic.AddInt64(&c.formsetMetrics.ActiveSessions, -1)
}

// IncrementActionHandled records a live action
func (c *Collector) IncrementActionHandled() {
	atomic.AddInt64(&c.formsetMetrics.ActionsHandled, 1)
}

// IncrementActionError records a live action that failed
func (c *Collector) IncrementActionError() {
	atomic.AddInt64(&c.formsetMetrics.ActionErrors, 1)
}

// IncrementSubmission records a parsed form submission
func (c *Collector) IncrementSubmission() {
	atomic.AddInt64(&c.formsetMetrics.Submissions, 1)
}

// IncrementSubmissionError records a rejected form submission
func (c *Collector) IncrementSubmissionError() {
	atomic.AddInt64(&c.formsetMetrics.SubmissionErrors, 1)
}

// IncrementCustomCounter increments a custom named counter
func (c *Collector) IncrementCustomCounter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if counter, exists := c.operationCounters[name]; exists {
		atomic.AddInt64(counter, 1)
	} else {
		var newCounter int64 = 1
		c.operationCounters[name] = &newCounter
	}
}

// GetMetrics returns current formset metrics
func (c *Collector) GetMetrics() FormsetMetrics {
	c.mu.RLock()
	startTime := c.startTime
	c.mu.RUnlock()

	// Return a copy with current atomic values
	return FormsetMetrics{
		FormsetsAttached:     atomic.LoadInt64(&c.formsetMetrics.FormsetsAttached),
		AttachErrors:         atomic.LoadInt64(&c.formsetMetrics.AttachErrors),
		FormsCreated:         atomic.LoadInt64(&c.formsetMetrics.FormsCreated),
		FormsAdded:           atomic.LoadInt64(&c.formsetMetrics.FormsAdded),
		FormsDeleted:         atomic.LoadInt64(&c.formsetMetrics.FormsDeleted),
		FormsDestroyed:       atomic.LoadInt64(&c.formsetMetrics.FormsDestroyed),
		SessionsStarted:      atomic.LoadInt64(&c.formsetMetrics.SessionsStarted),
		ActiveSessions:       atomic.LoadInt64(&c.formsetMetrics.ActiveSessions),
		MaxConcurrentSession: atomic.LoadInt64(&c.formsetMetrics.MaxConcurrentSession),
		ActionsHandled:       atomic.LoadInt64(&c.formsetMetrics.ActionsHandled),
		ActionErrors:         atomic.LoadInt64(&c.formsetMetrics.ActionErrors),
		Submissions:          atomic.LoadInt64(&c.formsetMetrics.Submissions),
		SubmissionErrors:     atomic.LoadInt64(&c.formsetMetrics.SubmissionErrors),
		StartTime:            startTime,
		Uptime:               time.Since(startTime),
	}
}

// GetCustomCounters returns all custom counters
func (c *Collector) GetCustomCounters() map[string]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]int64)
	for name, counter := range c.operationCounters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

// GetActionErrorRate returns the percentage of live actions that failed
func (c *Collector) GetActionErrorRate() float64 {
	handled := atomic.LoadInt64(&c.formsetMetrics.ActionsHandled)
	errors := atomic.LoadInt64(&c.formsetMetrics.ActionErrors)

	if handled+errors == 0 {
		return 0.0
	}

	return float64(errors) / float64(handled+errors) * 100.0
}

// Reset resets all metrics to zero
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.formsetMetrics
	for _, field := range []*int64{
		&m.FormsetsAttached, &m.AttachErrors,
		&m.FormsCreated, &m.FormsAdded, &m.FormsDeleted, &m.FormsDestroyed,
		&m.SessionsStarted, &m.ActiveSessions, &m.MaxConcurrentSession,
		&m.ActionsHandled, &m.ActionErrors, &m.Submissions, &m.SubmissionErrors,
	} {
		atomic.StoreInt64(field, 0)
	}

	// Reset custom counters
	c.operationCounters = make(map[string]*int64)

	c.startTime = time.Now()
	c.formsetMetrics.StartTime = c.startTime
}
