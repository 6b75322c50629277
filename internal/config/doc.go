// Package config loads the feeds session configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/feeds/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//
// # TOML Format
//
//	api_url = "https://feeds.stream-io-api.com"
//	ws_url = "wss://feeds.stream-io-api.com/api/v2/connect"
//	api_key = "..."
//	user_id = "alice"
//	user_token = "..."
//	page_size = 20
//	comment_page_size = 10
//	dedupe_window = 1024
//
// The credentials have no defaults. Validate reports which of them are
// missing so the caller can fail before dialing.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than
// os.ErrNotExist, and TOML parse errors. A missing file is not an error.
package config
