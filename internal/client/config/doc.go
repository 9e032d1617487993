// Package config loads runtime configuration for the folio client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. FOLIO_* environment variables (read with cleanenv).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   backend API base URL
//	-t int      request timeout (seconds)
//	-r float    outbound requests per second
//	-s string   sqlite store path
//	-i int      token expiry check interval (seconds)
//	-d string   debug server listen address (empty disables)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "requests_per_second": 10,
//	  "store_path": "folio.db",
//	  "expiry_check_interval": "30s",
//	  "debug_addr": "127.0.0.1:6060",
//	  "log_level": "info"
//	}
//
// The store sealing secret is only accepted from FOLIO_STORE_SECRET so it
// never lands in a config file or shell history.
package config
