package capture

import (
	"bytes"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// Chunk is one fragment of encoded audio delivered while recording.
type Chunk struct {
	Data     []byte
	MIMEType string
}

// Clip is the single binary object produced by one recording session.
type Clip struct {
	Data     []byte
	MIMEType string
}

func (c Clip) Size() int {
	return len(c.Data)
}

// Empty reports whether the recording produced no audio at all.
func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

func (c Clip) Reader() io.Reader {
	return bytes.NewReader(c.Data)
}

// Extension returns the file extension (with the dot) matching the clip's
// MIME type, or ".bin" when the type is unknown.
func (c Clip) Extension() string {
	if m := mimetype.Lookup(c.MIMEType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}

// Assemble concatenates chunks in delivery order. The clip takes the MIME
// type of the first chunk; an empty sequence yields an empty, untyped clip.
func Assemble(chunks []Chunk) Clip {
	if len(chunks) == 0 {
		return Clip{}
	}

	total := 0
	for _, c := range chunks {
		total += len(c.Data)
	}

	data := make([]byte, 0, total)
	for _, c := range chunks {
		data = append(data, c.Data...)
	}

	return Clip{Data: data, MIMEType: chunks[0].MIMEType}
}
