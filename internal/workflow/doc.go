// Package workflow sequences a transcription run through its stages:
// resolving the input, transcribing, re-segmenting oversized utterances,
// enriching (speaker identification and paragraph reflow, run concurrently
// when both apply), formatting, and persisting. A run either reaches Done or
// stops in Failed; temporary download artifacts are released on every exit
// path once acquired.
package workflow
