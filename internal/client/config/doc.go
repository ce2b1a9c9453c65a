// Package config loads runtime configuration for the console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, then CASCONSOLE_* environment
//     variables (see parseEnv).
//  3. Optional JSON file selected via -c, -config or $CASCONSOLE_CONFIG.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://cas.example.com/api/",
//	  "poll_interval": "3s",
//	  "storage": {"backend": "sas", "base_url": "https://acct.blob.core.windows.net/docs", "auth_suffix": "?sv=..."},
//	  "session": {"store": "redis", "redis_addr": "127.0.0.1:6379"},
//	  "auth": {"mode": "device", "issuer": "https://login.example.com", "client_id": "console"}
//	}
//
// # Environment
//
// Nested settings use their section as part of the name, for example
// CASCONSOLE_STORAGE_S3_BUCKET or CASCONSOLE_AUTH_SCOPES (comma separated).
package config
