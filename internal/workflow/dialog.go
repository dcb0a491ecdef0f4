// Package workflow implements the mutation dialog: open, edit, submit one
// request, show a confirmation, then invalidate the resource and report the
// outcome. Nothing is applied locally before the server confirms it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/client"
	"github.com/ssis-app/ssis/internal/invalidate"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/clock"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// DefaultConfirmTimeout is how long a confirmation stays up on its own.
const DefaultConfirmTimeout = 10 * time.Second

// Inline messages.
const (
	MsgNoChanges = "No changes detected."
	MsgRequired  = "Please fill in all required fields."
	MsgRetry     = "Something went wrong. Try again."
)

var (
	// ErrBusy is returned while a submission is in flight.
	ErrBusy = errors.New("a submission is already in progress")
	// ErrInvalidPhase is returned for actions the current phase does not allow.
	ErrInvalidPhase = errors.New("action not allowed in the current dialog state")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dialog closed")
)

// FormError is a submission rejected with an inline message. The dialog
// stays in Editing with the entered values intact.
type FormError struct {
	Message string
	Cause   error
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() error { return e.Cause }

// Phase is the dialog lifecycle position.
type Phase int

const (
	Closed Phase = iota
	Editing
	Submitting
	Confirming
)

func (p Phase) String() string {
	switch p {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Confirming:
		return "confirming"
	}
	return "closed"
}

// Mode is what the open dialog does on submit.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
	ModeDelete
)

// Action is the completed mutation reported in confirmations.
type Action string

const (
	ActionAdded   Action = "added"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Backend performs the mutations. *client.Resource satisfies it.
type Backend[T any] interface {
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, originalID string, v T) (T, error)
	Delete(ctx context.Context, id string) error
}

// Confirmation is shown after a successful mutation.
type Confirmation struct {
	Code   string
	Name   string
	Action Action
}

// Result is delivered once per opened dialog: the mutated entity, or a
// cancellation.
type Result[T any] struct {
	Entity    T
	Action    Action
	Cancelled bool
}

// State is a snapshot of the dialog.
type State[T any] struct {
	Phase        Phase
	Mode         Mode
	Values       T
	Error        string
	Confirmation *Confirmation
}

// Options configures a Dialog.
type Options struct {
	// ConfirmTimeout overrides DefaultConfirmTimeout.
	ConfirmTimeout time.Duration
	Clock          clock.Clock
	// Bus receives the invalidation published on dismissal.
	Bus *invalidate.Bus
	// Preload is refreshed whenever the dialog opens for create or edit.
	// A failed refresh is logged and the dialog opens anyway.
	Preload []Preloader
	Logger  zerolog.Logger
}

// Preloader is a picker list the form offers, such as a dropdown.Cache.
type Preloader interface {
	Preload(ctx context.Context) error
}

// Dialog is the mutation-then-confirm state machine for one resource.
type Dialog[T comparable] struct {
	backend Backend[T]
	form    Form[T]
	opts    Options
	results chan Result[T]
	resMu   sync.Mutex

	mu           sync.Mutex
	phase        Phase
	mode         Mode
	values       T
	original     T
	originalID   string
	errMsg       string
	confirmation *Confirmation
	entity       T
	timer        clock.Timer
	gen          uint64
	closed       bool
}

// New creates a closed dialog.
func New[T comparable](backend Backend[T], form Form[T], opts Options) *Dialog[T] {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	return &Dialog[T]{
		backend: backend,
		form:    form,
		opts:    opts,
		results: make(chan Result[T], 1),
	}
}

// Resource returns the resource the dialog mutates.
func (d *Dialog[T]) Resource() query.Resource {
	return d.form.Resource
}

// Results holds the outcome of the most recently finished dialog. An unread
// outcome is replaced by the next one, so owners that only watch State never
// block the dialog.
func (d *Dialog[T]) Results() <-chan Result[T] {
	return d.results
}

// State returns the current snapshot.
func (d *Dialog[T]) State() State[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := State[T]{Phase: d.phase, Mode: d.mode, Values: d.values, Error: d.errMsg}
	if d.confirmation != nil {
		c := *d.confirmation
		s.Confirmation = &c
	}
	return s
}

// OpenCreate opens a blank form.
func (d *Dialog[T]) OpenCreate(ctx context.Context) error {
	d.mu.Lock()
	if err := d.openableLocked(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.mu.Unlock()

	d.preload(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.openableLocked(); err != nil {
		return err
	}
	var zero T
	d.openLocked(ModeCreate, "", zero)
	return nil
}

// OpenEdit loads a fresh copy of the entity stored under id into the form.
func (d *Dialog[T]) OpenEdit(ctx context.Context, id string) error {
	return d.openLoaded(ctx, ModeEdit, id)
}

// OpenDelete loads the entity stored under id and asks for confirmation.
func (d *Dialog[T]) OpenDelete(ctx context.Context, id string) error {
	return d.openLoaded(ctx, ModeDelete, id)
}

func (d *Dialog[T]) openLoaded(ctx context.Context, mode Mode, id string) error {
	d.mu.Lock()
	if err := d.openableLocked(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.mu.Unlock()

	entity, err := d.backend.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load %s %s: %w", d.form.Resource.Singular, id, err)
	}
	if mode == ModeEdit {
		d.preload(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.openableLocked(); err != nil {
		return err
	}
	code, _ := d.form.Identity(entity)
	d.openLocked(mode, code, entity)
	return nil
}

func (d *Dialog[T]) preload(ctx context.Context) {
	for _, p := range d.opts.Preload {
		if err := p.Preload(ctx); err != nil {
			d.opts.Logger.Warn().Err(err).
				Str("resource", d.form.Resource.Name).
				Msg("Picker options could not be loaded")
		}
	}
}

func (d *Dialog[T]) openableLocked() error {
	if d.closed {
		return ErrClosed
	}
	if d.phase != Closed {
		return ErrInvalidPhase
	}
	return nil
}

func (d *Dialog[T]) openLocked(mode Mode, id string, values T) {
	d.phase = Editing
	d.mode = mode
	d.values = values
	d.original = values
	d.originalID = id
	d.errMsg = ""
	d.confirmation = nil
}

// Set replaces the form values.
func (d *Dialog[T]) Set(values T) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == Submitting {
		return ErrBusy
	}
	if d.phase != Editing || d.mode == ModeDelete {
		return ErrInvalidPhase
	}
	d.values = values
	return nil
}

// Reset clears every field and the inline error. An edit dialog still
// targets the entity it was opened for.
func (d *Dialog[T]) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == Submitting {
		return ErrBusy
	}
	if d.phase != Editing {
		return ErrInvalidPhase
	}
	var zero T
	d.values = zero
	d.errMsg = ""
	return nil
}

// Submit validates the form and sends the create or update. On success the
// dialog moves to Confirming; on rejection it stays in Editing and returns a
// *FormError carrying the inline message.
func (d *Dialog[T]) Submit(ctx context.Context) error {
	d.mu.Lock()
	if err := d.submittableLocked(); err != nil {
		d.mu.Unlock()
		return err
	}
	if d.mode == ModeDelete {
		d.mu.Unlock()
		return ErrInvalidPhase
	}

	v := d.form.Normalize(d.values)
	if err := d.form.Validate(v); err != nil {
		return d.rejectLocked(validationMessage(err), err)
	}
	if d.mode == ModeEdit && v == d.form.Normalize(d.original) {
		return d.rejectLocked(MsgNoChanges, nil)
	}

	mode, originalID := d.mode, d.originalID
	d.phase = Submitting
	d.errMsg = ""
	d.mu.Unlock()

	var (
		saved  T
		err    error
		action Action
	)
	if mode == ModeCreate {
		saved, err = d.backend.Create(ctx, v)
		action = ActionAdded
	} else {
		saved, err = d.backend.Update(ctx, originalID, v)
		action = ActionUpdated
	}

	code, _ := d.form.Identity(v)
	return d.settle(saved, action, err, code)
}

// Confirm answers the delete prompt. No cancels the dialog.
func (d *Dialog[T]) Confirm(ctx context.Context, yes bool) error {
	if !yes {
		return d.Cancel()
	}

	d.mu.Lock()
	if err := d.submittableLocked(); err != nil {
		d.mu.Unlock()
		return err
	}
	if d.mode != ModeDelete {
		d.mu.Unlock()
		return ErrInvalidPhase
	}
	entity, id := d.original, d.originalID
	d.phase = Submitting
	d.errMsg = ""
	d.mu.Unlock()

	err := d.backend.Delete(ctx, id)
	return d.settle(entity, ActionDeleted, err, id)
}

// Cancel closes an editing dialog without a mutation.
func (d *Dialog[T]) Cancel() error {
	d.mu.Lock()
	if d.phase == Submitting {
		d.mu.Unlock()
		return ErrBusy
	}
	if d.phase != Editing {
		d.mu.Unlock()
		return ErrInvalidPhase
	}
	d.clearLocked()
	d.mu.Unlock()

	d.deliver(Result[T]{Cancelled: true})
	return nil
}

// Dismiss closes the confirmation before its timeout.
func (d *Dialog[T]) Dismiss() error {
	d.mu.Lock()
	if d.phase != Confirming {
		d.mu.Unlock()
		return ErrInvalidPhase
	}
	d.finish()
	return nil
}

// Close stops the confirmation timer. The dialog cannot be reopened.
func (d *Dialog[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Dialog[T]) submittableLocked() error {
	switch {
	case d.closed:
		return ErrClosed
	case d.phase == Submitting:
		return ErrBusy
	case d.phase != Editing:
		return ErrInvalidPhase
	}
	return nil
}

// rejectLocked records an inline error and releases the lock.
func (d *Dialog[T]) rejectLocked(msg string, cause error) error {
	d.errMsg = msg
	d.mu.Unlock()
	return &FormError{Message: msg, Cause: cause}
}

// settle applies the server's answer to a submission.
func (d *Dialog[T]) settle(saved T, action Action, err error, code string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		d.phase = Editing
		msg := d.serverMessage(err, code)
		d.opts.Logger.Warn().Err(err).
			Str("resource", d.form.Resource.Name).
			Str("action", string(action)).
			Msg("Mutation rejected")
		return d.rejectLocked(msg, err)
	}

	code, name := d.form.Identity(saved)
	d.entity = saved
	d.phase = Confirming
	d.confirmation = &Confirmation{Code: code, Name: name, Action: action}
	d.gen++
	gen := d.gen
	d.timer = d.opts.Clock.AfterFunc(d.opts.ConfirmTimeout, func() { d.autoDismiss(gen) })
	d.mu.Unlock()
	return nil
}

func (d *Dialog[T]) autoDismiss(gen uint64) {
	d.mu.Lock()
	if d.phase != Confirming || d.gen != gen {
		d.mu.Unlock()
		return
	}
	d.finish()
}

// finish runs with the lock held and releases it. The invalidation is
// published before the result is delivered.
func (d *Dialog[T]) finish() {
	res := Result[T]{Entity: d.entity, Action: d.confirmation.Action}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.clearLocked()
	d.mu.Unlock()

	if d.opts.Bus != nil {
		d.opts.Bus.Publish(d.form.Resource.Name)
	}
	d.deliver(res)
}

func (d *Dialog[T]) deliver(res Result[T]) {
	d.resMu.Lock()
	defer d.resMu.Unlock()
	select {
	case <-d.results:
	default:
	}
	d.results <- res
}

func (d *Dialog[T]) clearLocked() {
	var zero T
	d.phase = Closed
	d.values = zero
	d.original = zero
	d.originalID = ""
	d.entity = zero
	d.errMsg = ""
	d.confirmation = nil
}

// serverMessage maps a failed request to the inline message.
func (d *Dialog[T]) serverMessage(err error, code string) string {
	msg := apperrors.Message(err, "")
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	}

	switch msg {
	case d.form.Conflict:
		return fmt.Sprintf("%s (%s) is already taken.", d.form.KeyLabel, code)
	case apperrors.MsgMissingFields:
		return MsgRequired
	}
	return MsgRetry
}

func validationMessage(err error) string {
	if errors.Is(err, apperrors.ErrMissingFields) {
		return MsgRequired
	}
	return apperrors.Message(err, MsgRetry)
}
