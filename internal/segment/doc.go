// Package segment re-chunks oversized utterances using sentence-level spans
// fetched from the transcription provider. Segmentation never drops text:
// concatenating the output equals concatenating the input, and utterances
// that cannot be matched to sentence data pass through oversized rather than
// being truncated.
package segment
