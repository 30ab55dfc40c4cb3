package metrics

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()

	if collector == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if collector.formsetMetrics == nil {
		t.Fatal("formsetMetrics not initialized")
	}

	if collector.operationCounters == nil {
		t.Fatal("operationCounters not initialized")
	}

	metrics := collector.GetMetrics()
	if metrics.FormsetsAttached != 0 || metrics.SessionsStarted != 0 {
		t.Errorf("Expected zero counters, got %+v", metrics)
	}
	if metrics.StartTime.IsZero() {
		t.Error("Expected start time to be set")
	}
}

func TestFormLifecycleMetrics(t *testing.T) {
	collector := NewCollector()

	collector.IncrementFormsetAttached(2)
	collector.IncrementAttachError()
	collector.IncrementFormCreated()
	collector.IncrementFormAdded()
	collector.IncrementFormAdded()
	collector.IncrementFormDeleted()
	collector.IncrementFormDestroyed()
	collector.IncrementFormDestroyed()
	collector.IncrementFormDestroyed()

	metrics := collector.GetMetrics()
	if metrics.FormsetsAttached != 2 {
		t.Errorf("Expected 2 formsets attached, got %d", metrics.FormsetsAttached)
	}
	if metrics.AttachErrors != 1 {
		t.Errorf("Expected 1 attach error, got %d", metrics.AttachErrors)
	}
	if metrics.FormsCreated != 1 {
		t.Errorf("Expected 1 form created, got %d", metrics.FormsCreated)
	}
	if metrics.FormsAdded != 2 {
		t.Errorf("Expected 2 forms added, got %d", metrics.FormsAdded)
	}
	if metrics.FormsDeleted != 1 {
		t.Errorf("Expected 1 form deleted, got %d", metrics.FormsDeleted)
	}
	if metrics.FormsDestroyed != 3 {
		t.Errorf("Expected 3 forms destroyed, got %d", metrics.FormsDestroyed)
	}
}

func TestSessionMetrics(t *testing.T) {
	collector := NewCollector()

	collector.IncrementSessionStarted()
	collector.IncrementSessionStarted()
	collector.IncrementSessionStarted()

	metrics := collector.GetMetrics()
	if metrics.SessionsStarted != 3 {
		t.Errorf("Expected 3 sessions started, got %d", metrics.SessionsStarted)
	}
	if metrics.ActiveSessions != 3 {
		t.Errorf("Expected 3 active sessions, got %d", metrics.ActiveSessions)
	}
	if metrics.MaxConcurrentSession != 3 {
		t.Errorf("Expected max concurrent sessions 3, got %d", metrics.MaxConcurrentSession)
	}

	collector.IncrementSessionEnded()
	metrics = collector.GetMetrics()

	if metrics.ActiveSessions != 2 {
		t.Errorf("Expected 2 active sessions after one ended, got %d", metrics.ActiveSessions)
	}

	// Max concurrent should remain the same
	if metrics.MaxConcurrentSession != 3 {
		t.Errorf("Expected max concurrent sessions to remain 3, got %d", metrics.MaxConcurrentSession)
	}
}

func TestActionErrorRate(t *testing.T) {
	collector := NewCollector()

	if rate := collector.GetActionErrorRate(); rate != 0.0 {
		t.Errorf("Expected error rate 0 with no actions, got %f", rate)
	}

	collector.IncrementActionHandled()
	collector.IncrementActionHandled()
	collector.IncrementActionHandled()
	collector.IncrementActionError()

	if rate := collector.GetActionErrorRate(); rate != 25.0 {
		t.Errorf("Expected error rate 25%%, got %f", rate)
	}

	collector.IncrementSubmission()
	collector.IncrementSubmissionError()
	metrics := collector.GetMetrics()
	if metrics.Submissions != 1 || metrics.SubmissionErrors != 1 {
		t.Errorf("Expected 1 submission and 1 submission error, got %d/%d", metrics.Submissions, metrics.SubmissionErrors)
	}
}

func TestCustomCounters(t *testing.T) {
	collector := NewCollector()

	collector.IncrementCustomCounter("action.add")
	collector.IncrementCustomCounter("action.add")
	collector.IncrementCustomCounter("action.delete")

	counters := collector.GetCustomCounters()

	if counters["action.add"] != 2 {
		t.Errorf("Expected action.add count 2, got %d", counters["action.add"])
	}

	if counters["action.delete"] != 1 {
		t.Errorf("Expected action.delete count 1, got %d", counters["action.delete"])
	}
}

func TestReset(t *testing.T) {
	collector := NewCollector()
	before := collector.GetMetrics().StartTime

	collector.IncrementFormAdded()
	collector.IncrementSessionStarted()
	collector.IncrementCustomCounter("action.add")

	time.Sleep(time.Millisecond)
	collector.Reset()

	metrics := collector.GetMetrics()
	if metrics.FormsAdded != 0 || metrics.SessionsStarted != 0 || metrics.ActiveSessions != 0 {
		t.Errorf("Expected counters reset, got %+v", metrics)
	}
	if len(collector.GetCustomCounters()) != 0 {
		t.Error("Expected custom counters reset")
	}
	if !metrics.StartTime.After(before) {
		t.Error("Expected start time to move forward on reset")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	collector := NewCollector()

	const workers = 20
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				collector.IncrementFormAdded()
				collector.IncrementSessionStarted()
				collector.IncrementSessionEnded()
				collector.IncrementCustomCounter("action.add")
			}
		}()
	}
	wg.Wait()

	metrics := collector.GetMetrics()
	if metrics.FormsAdded != workers*perWorker {
		t.Errorf("Expected %d forms added, got %d", workers*perWorker, metrics.FormsAdded)
	}
	if metrics.ActiveSessions != 0 {
		t.Errorf("Expected 0 active sessions, got %d", metrics.ActiveSessions)
	}
	if metrics.MaxConcurrentSession < 1 || metrics.MaxConcurrentSession > workers {
		t.Errorf("Expected max concurrent sessions between 1 and %d, got %d", workers, metrics.MaxConcurrentSession)
	}
	if got := collector.GetCustomCounters()["action.add"]; got != workers*perWorker {
		t.Errorf("Expected action.add count %d, got %d", workers*perWorker, got)
	}
}

func TestMetricsJSON(t *testing.T) {
	collector := NewCollector()
	collector.IncrementFormDestroyed()

	data, err := json.Marshal(collector.GetMetrics())
	if err != nil {
		t.Fatalf("Failed to marshal metrics: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal metrics: %v", err)
	}
	if decoded["forms_destroyed"] != float64(1) {
		t.Errorf("Expected forms_destroyed 1, got %v", decoded["forms_destroyed"])
	}
}
