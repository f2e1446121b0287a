package rtvi

import (
	"fmt"
	"runtime/debug"

	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
	"github.com/pipecat-ai/rtvi-client-android/sdk/value"
)

type pendingResponse struct {
	msgType string
	respond func(async.Result[value.Value])
}

// onMessage is handed to the transport and to the single-turn stream reader.
func (c *Client) onMessage(msg ServerMessage) {
	c.loop.RunOnThread(func() { c.handleMessage(msg) })
}

func (c *Client) handleMessage(msg ServerMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("type", msg.Type).Bytes("stack", debug.Stack()).
				Msg("exception while handling message")
		}
	}()

	c.instr.MessageReceived(msg.Type)

	if err := c.dispatch(msg); err != nil {
		c.log.Error().Err(err).Str("type", msg.Type).Str("id", msg.ID).Msg("exception while handling message")
	}
}

func (c *Client) dispatch(msg ServerMessage) error {
	if isResponseType(msg.Type) {
		return c.dispatchResponse(msg)
	}
	switch msg.Type {
	case MsgBotReady:
		var data BotReadyData
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode bot-ready: %w", err)
		}
		c.transport.SetState(StateReady)
		if conn := c.connection; conn != nil {
			conn.ready.ResolveOk(async.Unit{})
		}
		c.callbacks.OnBotReady(data.Version, data.Config)

	case MsgError:
		var data ErrorData
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode error: %w", err)
		}
		c.callbacks.OnBackendError(data.Error)

	case MsgMetrics:
		var data PipecatMetrics
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode metrics: %w", err)
		}
		c.callbacks.OnPipecatMetrics(data)

	case MsgUserTranscription:
		var data Transcript
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode transcript: %w", err)
		}
		c.callbacks.OnUserTranscript(data)

	case MsgBotTranscription, MsgBotTranscriptionLegacy:
		var data textData
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode bot transcript: %w", err)
		}
		c.callbacks.OnBotTranscript(data.Text)

	case MsgUserStartedSpeaking:
		c.callbacks.OnUserStartedSpeaking()
	case MsgUserStoppedSpeaking:
		c.callbacks.OnUserStoppedSpeaking()
	case MsgBotStartedSpeaking:
		c.callbacks.OnBotStartedSpeaking()
	case MsgBotStoppedSpeaking:
		c.callbacks.OnBotStoppedSpeaking()

	case MsgBotLLMText:
		var data BotLLMText
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode bot-llm-text: %w", err)
		}
		c.callbacks.OnBotLLMText(data)

	case MsgBotTTSText:
		var data BotTTSText
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode bot-tts-text: %w", err)
		}
		c.callbacks.OnBotTTSText(data)

	case MsgStorageItemStored:
		var data StorageItemStored
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode storage-item-stored: %w", err)
		}
		c.callbacks.OnStorageItemStored(data)

	default:
		if !c.dispatchToHelpers(msg) {
			c.log.Warn().Str("type", msg.Type).Msg("unexpected message type")
			c.callbacks.OnGenericMessage(msg)
		}
	}
	return nil
}

// handleResponse resolves the request msg answers. The END id is not a reply
// to anything and is skipped.
// dispatchResponse settles the pending request msg answers.
func (c *Client) dispatchResponse(msg ServerMessage) error {
	if msg.Type == MsgErrorResponse {
		var data ErrorData
		if err := msg.Data.Decode(&data); err != nil {
			return fmt.Errorf("decode error-response: %w", err)
		}
		if err := c.handleResponse(msg, async.Err[value.Value](&ErrorResponse{Message: data.Error})); err != nil {
			c.log.Error().Err(err).Msg("got exception handling error response")
			c.callbacks.OnBackendError(data.Error)
		}
		return nil
	}
	if err := c.handleResponse(msg, async.Ok(msg.Data)); err != nil {
		c.callbacks.OnBackendError(err.Error())
		return err
	}
	return nil
}

func (c *Client) handleResponse(msg ServerMessage, r async.Result[value.Value]) error {
	if msg.ID == "" {
		return fmt.Errorf("%s missing ID", msg.Type)
	}
	if msg.ID == EndOfStreamID {
		return nil
	}
	entry, ok := c.pending[msg.ID]
	if !ok {
		return fmt.Errorf("%s: no responder for %s", msg.Type, msg.ID)
	}
	c.removePending(msg.ID)
	entry.respond(r)
	return nil
}

func (c *Client) removePending(id string) {
	if _, ok := c.pending[id]; !ok {
		return
	}
	delete(c.pending, id)
	c.instr.PendingRequests(len(c.pending))
}

// discardWaitingResponses fails every pending request with ErrOperationCancelled.
func (c *Client) discardWaitingResponses() {
	c.loop.AssertCurrent()

	waiting := c.pending
	c.pending = make(map[string]pendingResponse)
	c.instr.PendingRequests(0)
	for id, entry := range waiting {
		c.log.Debug().Str("id", id).Str("type", entry.msgType).Msg("cancelling pending request")
		entry.respond(async.Err[value.Value](ErrOperationCancelled))
	}
}

// dispatchToHelpers hands msg to every helper that declared its type.
func (c *Client) dispatchToHelpers(msg ServerMessage) bool {
	matched := false
	for _, h := range c.helpers {
		if _, ok := h.types[msg.Type]; ok {
			matched = true
			h.helper.HandleMessage(msg)
		}
	}
	return matched
}
