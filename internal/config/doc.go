// Package config loads the chat relay configuration.
//
// # Sources
//
// Load merges, lowest priority first:
//
//  1. Built-in defaults (port 8080, CORS on, 60s provider timeout)
//  2. A .env file in the working directory, loaded with godotenv. Variables
//     already present in the environment win.
//  3. One config file: the path passed to Load, else CHATRELAY_CONFIG, else
//     the first of chatrelay.{jsonc,json,yaml,yml} found in the working
//     directory or in ~/.config/chatrelay
//  4. Environment variables
//
// # Formats
//
// Files ending in .yaml or .yml are YAML. Everything else is JSON with
// comments, stripped by tidwall/jsonc.
//
// # Variable Interpolation
//
// Config files support two placeholders:
//   - {env:VAR_NAME} expands to the environment variable
//   - {file:path} expands to the file contents, escaped for a quoted string
//
// Relative {file:} paths resolve against the config file's directory; ~/
// expands to the home directory.
//
//	{
//	  "gemini": { "apiKey": "{env:GOOGLE_AI_KEY}" },
//	  "github": { "token": "{file:~/.secrets/github-models}" },
//	  "providerTimeout": "45s",
//	  "capabilities": {
//	    "webSearch": { "current": ["gemini-2.5-pro", "gemini-2.5-flash"] }
//	  }
//	}
//
// # Environment Variable Overrides
//
//   - GEMINI_API_KEY, GITHUB_TOKEN - provider credentials
//   - GEMINI_BASE_URL, GITHUB_MODELS_BASE_URL - provider endpoints
//   - CHATRELAY_HOST, CHATRELAY_PORT - listen address
//   - CHATRELAY_LOG_LEVEL - DEBUG, INFO, WARN or ERROR
//   - CHATRELAY_PROVIDER_TIMEOUT - e.g. 90s
//   - CHATRELAY_CONFIG - config file path
package config
