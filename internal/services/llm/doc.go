// Package llm wraps an OpenRouter-compatible chat completion API used for
// speaker identification and paragraph reflow. The client is an optional
// dependency: callers must behave correctly when no client is configured.
package llm
