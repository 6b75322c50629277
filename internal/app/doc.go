// Package app is the composition root of feedwatch.
//
// # Overview
//
// Run wires configuration, the REST client, the realtime connection, the SDK
// client and the terminal viewer:
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read ~/.config/feeds/config.toml
//	       ├─────> prefs.Load()         Theme and last feed
//	       ├─────> api.NewClient()      REST client
//	       ├─────> client.New()         Controller registries
//	       ├─────> connect()            Dial realtime, start the pump
//	       ├─────> Feed.GetOrCreate()   First page, watch
//	       └─────> ui.Run()             Viewer (blocks)
//
//	Realtime pump:
//	┌─────────────────────────────────────────┐
//	│ Conn.Run() goroutine                    │
//	│  └─> Dispatcher.HandleFrame()           │
//	│       ├─> decode, drop, de-duplicate    │
//	│       └─> Client.HandleEvent()          │
//	│            └─> Feed/Poll.HandleEvent()  │
//	│                 └─> store commit        │
//	│                      └─> viewer redraw  │
//	└─────────────────────────────────────────┘
//
// The connection is dialed before the first page is requested so the watch
// request can carry the connection id.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Invalid config or missing credentials
//   - Realtime handshake failure
//   - First page failure
//
// Recoverable errors:
//   - The realtime connection dropping; logged, the viewer keeps working
//     against the REST API
//   - Failing to save preferences
//
// Reconnecting is left to the caller: run feedwatch again.
package app
