package io

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"maps"
	"strings"
)

// Console is the machine's terminal. It reads whole lines from Input and
// buffers characters written to Output until flushed.
type Console struct {
	Input  io.Reader // Source of input lines. Nil reads as end of input.
	Output io.Writer // Destination of output. Nil discards output.
	Echo   io.Writer // If set, each input line is echoed here as ">>> line".

	reader *bufio.Reader
	writer *bufio.Writer
}

var _console_defines = map[string]string{
	"NEWLINE": fmt.Sprintf("%v", '\n'),
}

// Defines returns an iter of defines for the console.
func (con *Console) Defines() iter.Seq2[string, string] {
	return maps.All(_console_defines)
}

// Rewind flushes pending output and drops buffered input, so that Input
// and Output may be replaced.
func (con *Console) Rewind() {
	if con.writer != nil {
		con.writer.Flush()
	}
	con.reader = nil
	con.writer = nil
}

// ReadLine returns the next line of input, including its newline. The
// last line of input may lack the newline.
func (con *Console) ReadLine() (line string, err error) {
	if con.Input == nil {
		err = io.EOF
		return
	}
	if con.reader == nil {
		con.reader = bufio.NewReader(con.Input)
	}

	line, err = con.reader.ReadString('\n')
	if len(line) == 0 {
		return
	}
	err = nil

	if con.Echo != nil {
		text := line
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		fmt.Fprintf(con.Echo, ">>> %s", text)
	}

	return
}

// WriteRune buffers a character of output.
func (con *Console) WriteRune(r rune) (size int, err error) {
	if con.Output == nil {
		size = len(string(r))
		return
	}
	if con.writer == nil {
		con.writer = bufio.NewWriter(con.Output)
	}

	return con.writer.WriteRune(r)
}

// Flush writes buffered output.
func (con *Console) Flush() (err error) {
	if con.writer == nil {
		return
	}

	return con.writer.Flush()
}
