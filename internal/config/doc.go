// Package config loads callwatch's TOML configuration.
//
// # Resolution Order
//
//  1. Built-in defaults (see Default)
//  2. The config file, ~/.config/callwatch/config.toml unless a path is given
//  3. A .env file in the working directory, loaded into the environment
//  4. CALLWATCH_* environment variables
//
// A missing config file is not an error. A malformed one is.
//
// # TOML Format
//
//	api_url = "http://localhost:5001"
//	username = "admin"
//	password = "password"
//	log_file = "~/.local/state/callwatch/callwatch.log"
//	log_level = "info"
//	metrics_addr = "127.0.0.1:9464"
//	request_timeout = "10s"
//
//	[poll]
//	metrics = "10s"
//	recent_calls = "15s"
//	system_status = "30s"
//	calls = "30s"
//	live = "5s"
//
// Durations use Go syntax. A poll interval of "0s" turns scheduled refresh
// off for that resource; it is still fetched when its page opens.
//
// # Environment
//
//   - CALLWATCH_API_URL, CALLWATCH_USERNAME, CALLWATCH_PASSWORD
//   - CALLWATCH_LOG_FILE, CALLWATCH_LOG_LEVEL, CALLWATCH_METRICS_ADDR
//   - CALLWATCH_REQUEST_TIMEOUT
//   - CALLWATCH_POLL sets every enabled poll interval at once
//
// Tilde expansion is applied to the config path and log_file.
package config
