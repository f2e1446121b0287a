// Package rtvi is a client for the RTVI real-time voice and video control
// protocol.
//
// A Client authorizes with a backend over HTTP, hands the returned bundle to
// a Transport, and then exchanges control messages with the bot. Requests
// such as Action or GetConfig are correlated with their replies by message
// id. Actions fall back to a single-turn HTTP request streamed as server-sent
// events when no transport is connected.
//
// All client state lives on a loop.Loop. Callbacks, helper message handlers
// and future observers run there, one at a time.
package rtvi
