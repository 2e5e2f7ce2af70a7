// Package io provides the console collaborators of the word machine: a
// line-buffered input source and a character output sink that flushes on
// every newline.
package io
