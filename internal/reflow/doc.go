// Package reflow splits long single-speaker passages into readable
// paragraphs via the optional classifier. Wording is sacrosanct: any
// response that does not reproduce the original text exactly (ignoring the
// inserted paragraph separators) is rejected and the passage stays as-is.
package reflow
