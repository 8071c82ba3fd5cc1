package handlers

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/interfaces"
)

type fakeScheduler struct {
	status     interfaces.ScanStatus
	triggerErr error
	triggered  bool
}

func (f *fakeScheduler) Start() error                  { return nil }
func (f *fakeScheduler) Stop() error                   { return nil }
func (f *fakeScheduler) IsRunning() bool               { return f.status.IsRunning }
func (f *fakeScheduler) Status() interfaces.ScanStatus { return f.status }

func (f *fakeScheduler) TriggerScanNow() error {
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggered = true
	return nil
}

func TestScanStatus(t *testing.T) {
	scheduler := &fakeScheduler{status: interfaces.ScanStatus{
		Enabled:  true,
		Schedule: "0 18 * * 1-5",
	}}
	handler := NewSchedulerHandler(scheduler)

	r := httptest.NewRequest("GET", "/api/scan/status", nil)
	w := httptest.NewRecorder()
	handler.StatusHandler(w, r)

	require.Equal(t, 200, w.Code)

	var status interfaces.ScanStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Enabled)
	assert.Equal(t, "0 18 * * 1-5", status.Schedule)
}

func TestScanTrigger(t *testing.T) {
	scheduler := &fakeScheduler{}
	handler := NewSchedulerHandler(scheduler)

	r := httptest.NewRequest("POST", "/api/scan/trigger", nil)
	w := httptest.NewRecorder()
	handler.TriggerHandler(w, r)

	require.Equal(t, 200, w.Code)
	assert.True(t, scheduler.triggered)
}

func TestScanTriggerConflict(t *testing.T) {
	scheduler := &fakeScheduler{triggerErr: fmt.Errorf("a watchlist scan is already running")}
	handler := NewSchedulerHandler(scheduler)

	r := httptest.NewRequest("POST", "/api/scan/trigger", nil)
	w := httptest.NewRecorder()
	handler.TriggerHandler(w, r)

	assert.Equal(t, 409, w.Code)
	assert.Contains(t, w.Body.String(), "already running")
}

func TestScanTriggerRejectsGet(t *testing.T) {
	handler := NewSchedulerHandler(&fakeScheduler{})

	r := httptest.NewRequest("GET", "/api/scan/trigger", nil)
	w := httptest.NewRecorder()
	handler.TriggerHandler(w, r)

	assert.Equal(t, 405, w.Code)
}
