package service

import (
	"fmt"
	"sync"
	"time"
	"weak"

	"sapid/internal/forms/models"
	"sapid/internal/forms/validation"
	"sapid/internal/platform/scheduler"
	dErrors "sapid/pkg/domain-errors"
	strs "sapid/pkg/platform/strings"
)

const (
	DefaultSubmitLatency  = 2 * time.Second
	DefaultSuccessDisplay = 5 * time.Second
)

// Timing holds the two simulated submission delays.
type Timing struct {
	SubmitLatency  time.Duration
	SuccessDisplay time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.SubmitLatency <= 0 {
		t.SubmitLatency = DefaultSubmitLatency
	}
	if t.SuccessDisplay <= 0 {
		t.SuccessDisplay = DefaultSuccessDisplay
	}
	return t
}

// PhaseObserver is told about every timed phase change. It runs on the
// scheduler's goroutine after the form's lock is released.
type PhaseObserver func(id string, kind models.Kind, phase models.Phase)

// Form is one instance of a form with its values, recorded errors and
// submission phase.
//
// Submit moves Idle -> Submitting; the scheduler then moves it to Succeeded
// after SubmitLatency and back to Idle after SuccessDisplay. Scheduled steps
// hold only a weak pointer to the form and carry the generation they were
// scheduled in, so a disposed or collected form is never mutated.
type Form struct {
	mu       sync.Mutex
	id       string
	def      models.Definition
	values   map[string]validation.Value
	errors   map[string]string
	phase    models.Phase
	sched    scheduler.Scheduler
	timing   Timing
	observe  PhaseObserver
	pending  scheduler.Task
	gen      uint64
	disposed bool
}

// NewForm creates an idle form with every field at its default.
func NewForm(id string, def models.Definition, sched scheduler.Scheduler, timing Timing, observe PhaseObserver) *Form {
	if sched == nil {
		sched = scheduler.Timer{}
	}
	return &Form{
		id:      id,
		def:     def,
		values:  def.Defaults(),
		errors:  make(map[string]string),
		phase:   models.PhaseIdle,
		sched:   sched,
		timing:  timing.withDefaults(),
		observe: observe,
	}
}

func (f *Form) ID() string        { return f.id }
func (f *Form) Kind() models.Kind { return f.def.Kind }

// SetField overwrites a field and clears its recorded error.
func (f *Form) SetField(name string, value validation.Value) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, err := f.editableLocked(name)
	if err != nil {
		return models.Snapshot{}, err
	}
	if field.Multi != value.IsMulti() {
		if field.Multi {
			return models.Snapshot{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("field %q takes a list of options", name))
		}
		return models.Snapshot{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("field %q takes a single value", name))
	}
	if value.IsMulti() {
		value = validation.List(strs.DedupeAndTrim(value.Items())...)
	}
	f.values[name] = value
	delete(f.errors, name)
	return f.snapshotLocked(), nil
}

// ToggleOption adds option to a multi-select field, or removes it when selected.
func (f *Form) ToggleOption(name, option string) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	field, err := f.editableLocked(name)
	if err != nil {
		return models.Snapshot{}, err
	}
	if !field.Multi {
		return models.Snapshot{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("field %q is not a multi-select", name))
	}
	f.values[name] = f.values[name].Toggle(option)
	delete(f.errors, name)
	return f.snapshotLocked(), nil
}

func (f *Form) editableLocked(name string) (models.FieldDef, error) {
	if f.disposed {
		return models.FieldDef{}, dErrors.New(dErrors.CodeNotFound, "form no longer exists")
	}
	field, ok := f.def.Field(name)
	if !ok {
		return models.FieldDef{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown field %q", name))
	}
	switch {
	case f.phase == models.PhaseSubmitting:
		return models.FieldDef{}, dErrors.New(dErrors.CodeConflict, "form is being submitted")
	case f.phase == models.PhaseSucceeded && f.def.Reset == models.ResetOnIdle:
		return models.FieldDef{}, dErrors.New(dErrors.CodeConflict, "form is about to be reset")
	}
	return field, nil
}

// Validate evaluates the rule set and replaces the recorded errors.
func (f *Form) Validate() validation.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form) validateLocked() validation.Result {
	res := f.def.Rules.Validate(f.values)
	f.errors = make(map[string]string, len(res.Errors))
	for _, e := range res.Errors {
		f.errors[e.Field] = e.Message
	}
	return res
}

// Submit validates and, when valid, starts the simulated submission. An
// invalid form only gets its errors recorded.
func (f *Form) Submit() (validation.Result, models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.disposed {
		return validation.Result{}, models.Snapshot{}, dErrors.New(dErrors.CodeNotFound, "form no longer exists")
	}
	if f.phase != models.PhaseIdle {
		return validation.Result{}, f.snapshotLocked(), dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	}
	res := f.validateLocked()
	if !res.Valid {
		return res, f.snapshotLocked(), nil
	}
	f.phase = models.PhaseSubmitting
	f.scheduleLocked(f.timing.SubmitLatency, (*Form).succeed)
	return res, f.snapshotLocked(), nil
}

// scheduleLocked arms step to run after d for the current generation.
func (f *Form) scheduleLocked(d time.Duration, step func(*Form, uint64)) {
	f.gen++
	gen := f.gen
	wp := weak.Make(f)
	f.pending = f.sched.AfterFunc(d, func() {
		if form := wp.Value(); form != nil {
			step(form, gen)
		}
	})
}

func (f *Form) succeed(gen uint64) {
	f.mu.Lock()
	if f.disposed || gen != f.gen || f.phase != models.PhaseSubmitting {
		f.mu.Unlock()
		return
	}
	f.phase = models.PhaseSucceeded
	if f.def.Reset == models.ResetOnSuccess {
		f.resetLocked()
	}
	f.scheduleLocked(f.timing.SuccessDisplay, (*Form).settle)
	f.mu.Unlock()
	f.notify(models.PhaseSucceeded)
}

func (f *Form) settle(gen uint64) {
	f.mu.Lock()
	if f.disposed || gen != f.gen || f.phase != models.PhaseSucceeded {
		f.mu.Unlock()
		return
	}
	f.phase = models.PhaseIdle
	f.pending = nil
	if f.def.Reset == models.ResetOnIdle {
		f.resetLocked()
	}
	f.mu.Unlock()
	f.notify(models.PhaseIdle)
}

func (f *Form) resetLocked() {
	f.values = f.def.Defaults()
	f.errors = make(map[string]string)
}

func (f *Form) notify(phase models.Phase) {
	if f.observe != nil {
		f.observe(f.id, f.def.Kind, phase)
	}
}

// Dispose cancels pending transitions. Later calls to the form fail and
// already-fired callbacks are discarded.
func (f *Form) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed {
		return
	}
	f.disposed = true
	f.gen++
	if f.pending != nil {
		f.pending.Stop()
		f.pending = nil
	}
}

func (f *Form) Snapshot() models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		ID:     f.id,
		Kind:   f.def.Kind,
		Phase:  f.phase,
		Fields: make([]models.FieldValue, 0, len(f.def.Fields)),
		Errors: []validation.FieldError{},
	}
	for _, field := range f.def.Fields {
		snap.Fields = append(snap.Fields, models.FieldValue{Name: field.Name, Value: f.values[field.Name]})
	}
	// Errors follow rule-set order, matching a fresh validation pass.
	for _, fr := range f.def.Rules {
		if msg, ok := f.errors[fr.Field]; ok {
			snap.Errors = append(snap.Errors, validation.FieldError{Field: fr.Field, Message: msg})
		}
	}
	return snap
}
