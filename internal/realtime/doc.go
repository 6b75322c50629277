// Package realtime connects to the realtime endpoint and turns its frames
// into events.
//
// Conn owns the websocket: it waits for connection.ok, exposes the
// connection id, sends periodic health checks and delivers each non-empty
// frame to a callback on the read goroutine. Empty frames are pings. Conn
// does not reconnect; retry policy belongs to whoever dials it.
//
// Dispatcher decodes frames into events.Event values and forwards them in
// arrival order. Frames that fail to decode are dropped without surfacing an
// error so a schema change cannot stall the stream. Events carrying an
// event_id are de-duplicated against a bounded LRU window.
package realtime
