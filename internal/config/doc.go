// Package config loads, normalizes, and validates the TOML configuration
// file. Secrets can be supplied through the environment instead of the file
// (ASSEMBLYAI_API_KEY, QUILL_LLM_API_KEY); environment values win.
package config
