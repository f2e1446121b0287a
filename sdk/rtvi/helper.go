package rtvi

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

// Helper consumes server messages addressed to one backend service.
type Helper interface {
	// HandleMessage receives messages whose type is listed by MessageTypes.
	// It runs on the client loop.
	HandleMessage(msg ServerMessage)
	MessageTypes() []string
	Bind(rc *RegisteredClient) error
	Unbind() error
}

// RegisteredClient is the client a helper is registered with, scoped to the
// helper's service.
type RegisteredClient struct {
	Client  *Client
	Service string
}

// Action invokes action on the helper's service.
func (rc *RegisteredClient) Action(action string, args []Option) *async.Future[value.Value] {
	return rc.Client.Action(rc.Service, action, args)
}

// HelperBase tracks the client a helper is bound to. Embed it to implement
// Bind and Unbind.
type HelperBase struct {
	client atomic.Pointer[RegisteredClient]
}

func (h *HelperBase) Bind(rc *RegisteredClient) error {
	if !h.client.CompareAndSwap(nil, rc) {
		return errors.New("helper is already registered to a client")
	}
	return nil
}

func (h *HelperBase) Unbind() error {
	if h.client.Swap(nil) == nil {
		return errors.New("helper is not registered to a client")
	}
	return nil
}

// Client returns the bound client, or nil.
func (h *HelperBase) Client() *RegisteredClient { return h.client.Load() }

// WithClient runs fn on the bound client's loop, or fails with
// ErrHelperNotRegistered.
func WithClient[R any](h *HelperBase, fn func(rc *RegisteredClient) *async.Future[R]) *async.Future[R] {
	rc := h.client.Load()
	if rc == nil {
		// No client means no loop; observers of this future run inline.
		return async.Failed[R](nil, ErrHelperNotRegistered)
	}
	return async.RunOnLoop(rc.Client.loop, func() *async.Future[R] { return fn(rc) })
}

// EnsureReady runs fn only while c is in StateReady. Call it on c's loop.
func EnsureReady[V any](c *Client, fn func() *async.Future[V]) *async.Future[V] {
	if state := c.State(); state != StateReady {
		return async.Failed[V](c.loop, &InvalidStateError{Expected: StateReady, Actual: state})
	}
	return fn()
}

type registeredHelper struct {
	service string
	helper  Helper
	types   map[string]struct{}
}

// RegisterHelper routes messages of the helper's types to it.
func (c *Client) RegisterHelper(service string, h Helper) error {
	var err error
	if cerr := c.loop.Call(func() { err = c.registerHelper(service, h) }); cerr != nil {
		return cerr
	}
	return err
}

func (c *Client) registerHelper(service string, h Helper) error {
	for _, rh := range c.helpers {
		if rh.service == service {
			return fmt.Errorf("helper targeting service '%s' already registered", service)
		}
	}
	if err := h.Bind(&RegisteredClient{Client: c, Service: service}); err != nil {
		return err
	}
	types := make(map[string]struct{})
	for _, t := range h.MessageTypes() {
		types[t] = struct{}{}
	}
	c.helpers = append(c.helpers, &registeredHelper{service: service, helper: h, types: types})
	c.log.Debug().Str("service", service).Int("types", len(types)).Msg("helper registered")
	return nil
}

// UnregisterHelper removes the helper registered for service.
func (c *Client) UnregisterHelper(service string) error {
	var err error
	if cerr := c.loop.Call(func() { err = c.unregisterHelper(service) }); cerr != nil {
		return cerr
	}
	return err
}

func (c *Client) unregisterHelper(service string) error {
	for i, rh := range c.helpers {
		if rh.service != service {
			continue
		}
		c.helpers = append(c.helpers[:i:i], c.helpers[i+1:]...)
		c.log.Debug().Str("service", service).Msg("helper unregistered")
		return rh.helper.Unbind()
	}
	return fmt.Errorf("helper targeting service '%s' not found", service)
}
