package vm

import (
	"io"
	"iter"
)

// Link is an operand waiting for a label address.
type Link struct {
	Index int    // Index into Statement.Codes.
	Label string // Label to resolve.
}

// Statement is a line of assembled code with its source location and
// generated words.
type Statement struct {
	LineNo int
	Ip     int
	Words  []string
	Codes  []Word
	Links  []Link
}

// Program is an assembled listing.
type Program struct {
	Statements []Statement
	Labels     map[string]int
}

// Debug locates the statement covering an address.
type Debug struct {
	*Statement
	Index int
}

// Debug returns the statement that generated the word at ip, if any.
func (prog *Program) Debug(ip uint32) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(ip) >= st.Ip && int(ip) < st.Ip+len(st.Codes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(ip) - st.Ip,
			}
			break
		}
	}

	return
}

// LineNo returns the source line that generated the word at ip, or 0.
func (prog *Program) LineNo(ip uint32) int {
	dbg := prog.Debug(ip)
	if dbg.Statement == nil {
		return 0
	}
	return dbg.LineNo
}

// Codes iterates over every generated word and its address.
func (prog *Program) Codes() iter.Seq2[uint32, Word] {
	return func(yield func(ip uint32, code Word) bool) {
		for _, st := range prog.Statements {
			for n, code := range st.Codes {
				if !yield(uint32(st.Ip+n), code) {
					return
				}
			}
		}
	}
}

// Binary returns the memory image of the program. Gaps left by .org are
// zero filled.
func (prog *Program) Binary() (image []Word) {
	var size int
	for _, st := range prog.Statements {
		size = max(size, st.Ip+len(st.Codes))
	}

	image = make([]Word, size)
	for ip, code := range prog.Codes() {
		image[ip] = code
	}

	return
}

// WriteTo writes the program as a little-endian binary image.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	return WriteImage(w, prog.Binary())
}
