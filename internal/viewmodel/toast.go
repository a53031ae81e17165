package viewmodel

import "sync"

// Variant is the visual style of a toast.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantSuccess     Variant = "success"
	VariantDestructive Variant = "destructive"
)

// Toast is a transient, dismissible user-facing message.
type Toast struct {
	Variant     Variant
	Title       string
	Description string
}

// Toaster shows toasts to the user.
type Toaster interface {
	Toast(Toast)
}

// ToasterFunc adapts a function to Toaster.
type ToasterFunc func(Toast)

// Toast calls f.
func (f ToasterFunc) Toast(t Toast) { f(t) }

// Recorder is a Toaster that keeps every toast it is shown.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Toast records t.
func (r *Recorder) Toast(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

type discardToaster struct{}

func (discardToaster) Toast(Toast) {}
