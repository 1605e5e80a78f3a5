package handlers

import (
	"net/http"
	"strconv"
	"sync"
)

const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a transient operator notification.
type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// toastCollector gathers the toasts raised while serving one request.
type toastCollector struct {
	mu     sync.Mutex
	toasts []Toast
}

func (c *toastCollector) Success(msg string) { c.add(ToastSuccess, msg) }
func (c *toastCollector) Error(msg string)   { c.add(ToastError, msg) }

func (c *toastCollector) add(kind, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toasts = append(c.toasts, Toast{Kind: kind, Message: msg})
}

func (c *toastCollector) All() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Toast(nil), c.toasts...)
}

// ConfirmHeader carries the operator's answer to the delete prompt.
const ConfirmHeader = "X-Confirm-Delete"

// requestConfirmer answers the delete prompt from the request: the
// ConfirmHeader or a confirm query parameter must be true.
type requestConfirmer struct {
	r *http.Request
}

func (c requestConfirmer) Confirm(string) bool {
	if v := c.r.Header.Get(ConfirmHeader); v != "" {
		ok, _ := strconv.ParseBool(v)
		return ok
	}
	ok, _ := strconv.ParseBool(c.r.URL.Query().Get("confirm"))
	return ok
}
