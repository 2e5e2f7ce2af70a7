package vm

import (
	"encoding/binary"
	"errors"
	"io"
	"log"

	"github.com/spaolacci/murmur3"
)

// Load reads a little-endian image of up to MEMORY_SIZE words into memory,
// starting at address 0. Memory beyond the image is zeroed. A trailing odd
// byte is ignored.
func (m *Machine) Load(r io.Reader) (words int, err error) {
	buf := make([]byte, MEMORY_SIZE*2)
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if err != nil {
		return
	}

	image := make([]Word, n/2)
	for i := range image {
		image[i] = Word(binary.LittleEndian.Uint16(buf[i*2:]))
	}

	words = m.LoadWords(image)

	return
}

// LoadWords copies an image into memory, starting at address 0. Memory
// beyond the image is zeroed. Returns the number of words loaded.
func (m *Machine) LoadWords(image []Word) (words int) {
	clear(m.Memory[:])
	words = copy(m.Memory[:], image)

	if m.Verbose {
		log.Printf("vm: loaded %d words, fingerprint %016x", words, Fingerprint(m.Memory[:words]))
	}

	return
}

// Fingerprint returns a 64-bit hash of an image, for identifying images in
// logs and listings.
func Fingerprint(image []Word) uint64 {
	hash := murmur3.New64()
	var buf [2]byte
	for _, word := range image {
		binary.LittleEndian.PutUint16(buf[:], uint16(word))
		hash.Write(buf[:])
	}
	return hash.Sum64()
}

// WriteImage writes words as a little-endian image.
func WriteImage(w io.Writer, image []Word) (n int64, err error) {
	buf := make([]byte, len(image)*2)
	for i, word := range image {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(word))
	}
	written, err := w.Write(buf)
	n = int64(written)
	return
}
