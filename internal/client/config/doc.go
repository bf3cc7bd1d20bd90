// Package config loads runtime configuration for the taskmark CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. TASKMARK_* environment variables.
//  4. Command-line flags, which override everything above.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-w string   base URL of the realtime websocket endpoint
//	-d string   path of the local SQLite file holding the session
//	-i int      online status check interval (seconds)
//	-t int      per-request timeout (seconds)
//	-p string   insert policy: response or realtime
//	-f string   filter mode: client or server
//	-l string   log level
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "realtime_url": "ws://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "insert_policy": "response"
//	}
package config
