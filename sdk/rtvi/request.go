package rtvi

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

// sendWithResponse sends msg and resolves with filter applied to the decoded
// reply. Without a live transport, single-turn requests go over HTTP.
func sendWithResponse[M, R any](c *Client, msg ClientMessage, allowSingleTurn bool, filter func(M) R) *async.Future[R] {
	p := async.NewPromise[R](c.loop)
	start := time.Now()
	p.Future().WithCallback(func(r async.Result[R]) {
		c.instr.RequestCompleted(msg.Type, time.Since(start), r.Err)
	})

	c.loop.RunOnThread(func() {
		c.instr.RequestSent(msg.Type)
		c.pending[msg.ID] = pendingResponse{
			msgType: msg.Type,
			respond: func(r async.Result[value.Value]) {
				if r.Err != nil {
					p.ResolveErr(r.Err)
					return
				}
				var data M
				if err := r.Value.Decode(&data); err != nil {
					p.ResolveErr(fmt.Errorf("decode %s reply: %w", msg.Type, err))
					return
				}
				p.ResolveOk(filter(data))
			},
		}
		c.instr.PendingRequests(len(c.pending))

		state := c.transport.State()
		switch {
		case state.connectedOrReady():
			async.WithTimeout(c.transport.SendMessage(msg), c.options.sendTimeout()).
				WithErrorCallback(func(err error) {
					c.removePending(msg.ID)
					p.ResolveErr(err)
				})
		case allowSingleTurn:
			c.sendSingleTurn(msg, p.ResolveErr)
		default:
			c.removePending(msg.ID)
			p.ResolveErr(&InvalidStateError{Expected: StateConnected, Actual: state})
		}
	})
	return p.Future()
}

// sendSingleTurn posts msg to the action endpoint and feeds the streamed
// replies back through onMessage. fail is called once the stream ends; it is
// a no-op if a reply already resolved the request.
func (c *Client) sendSingleTurn(msg ClientMessage, fail func(error)) {
	cd := c.options.connectionData()
	body, err := json.Marshal(cd.actionBody(msg))
	if err != nil {
		c.removePending(msg.ID)
		fail(err)
		return
	}
	url := c.options.Params.BaseURL + c.options.endpoints().Action
	c.log.Debug().Str("url", url).Str("id", msg.ID).Msg("sending single-turn action")

	stream := func(r io.Reader) error {
		return parseServerSentEvents(r, func(frame []byte) error {
			m, err := DecodeServerMessage(frame)
			if err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			c.onMessage(m)
			return nil
		})
	}
	post(c.loop, c.httpClient, url, body, cd.headers, stream).WithCallback(func(r async.Result[string]) {
		c.removePending(msg.ID)
		if r.Err != nil {
			fail(r.Err)
			return
		}
		fail(ErrConnectionEnded)
	})
}

// Action asks service to perform action. While the transport is not
// connected the action is sent as a single-turn HTTP request.
func (c *Client) Action(service, action string, args []Option) *async.Future[value.Value] {
	return sendWithResponse(c, ActionMessage(service, action, args), true,
		func(d ActionResponseData) value.Value { return d.Result })
}

// GetConfig returns the current backend config.
func (c *Client) GetConfig() *async.Future[Config] {
	return sendWithResponse(c, GetConfigMessage(), false, func(cfg Config) Config { return cfg })
}

// UpdateConfig applies update and returns the resulting config.
func (c *Client) UpdateConfig(update []ServiceConfig) *async.Future[Config] {
	return sendWithResponse(c, UpdateConfigMessage(update), false, func(cfg Config) Config { return cfg })
}

// DescribeConfig returns the structure of the backend config.
func (c *Client) DescribeConfig() *async.Future[[]ServiceConfigDescription] {
	return sendWithResponse(c, DescribeConfigMessage(), false,
		func(d ConfigAvailableData) []ServiceConfigDescription { return d.Config })
}

// DescribeActions returns the actions the backend supports.
func (c *Client) DescribeActions() *async.Future[[]ActionDescription] {
	return sendWithResponse(c, DescribeActionsMessage(), false,
		func(d ActionsAvailableData) []ActionDescription { return d.Actions })
}
