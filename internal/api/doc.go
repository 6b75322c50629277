// Package api provides the HTTP client for the feeds REST API.
//
// # Overview
//
// The client covers the endpoints the feed, poll and search controllers need:
// feed get-or-create with its first page, activity/feed/user queries, comment
// and reply pages, follows, members, bookmarks, reactions, notification
// marking and poll votes. Controllers depend on the FeedsAPI interface so tests
// can swap in a fake.
//
// # Pagination
//
// Every page response carries an optional "next" cursor. The field being absent
// (decoded as "") means there is no further page. Whether a list has a next
// page is only known after its first page has been fetched; tracking that is
// left to the controllers.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Send Accept: application/json and a feeds-go User-Agent
//   - Carry api_key as a query parameter and the user token as Authorization
//   - Carry a fresh Idempotency-Key (UUID) on every non-GET request
//
// # Error Handling
//
// Transport and decoding failures are wrapped with fmt.Errorf:
//
//   - "execute request: dial tcp: connection refused"
//   - "decode response: unexpected end of JSON input"
//
// Non-2xx responses are returned as *APIError with the status code and the
// server's code/message when the body carries them. IsConflict recognizes the
// "already exists" family so idempotent setup calls can treat it as success.
//
// # Design Rationale
//
// The client does not retry and does not cache; retries belong to the
// transport collaborator and caching to the controllers' snapshots.
package api
