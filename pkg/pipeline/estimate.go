package pipeline

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/ssargent/muninn/pkg/reader"
)

const estimateChunkSize = 64 * 1024

// EstimateTotalLines counts line terminators in a single pre-scan
// pass; a final line without a terminator counts as a line. It returns
// 0 for a missing or empty path rather than failing. The count is a
// progress-scaling estimate, not authoritative: the file is read again
// during the actual parse and may have changed in between.
func (p *Pipeline) EstimateTotalLines(path string) int64 {
	if strings.TrimSpace(path) == "" {
		return 0
	}

	// Compressed sources are counted through the decoding reader so
	// the estimate refers to the same lines the parse will see.
	if reader.IsArchive(path) {
		return p.estimateArchive(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	var count int64
	last := byte('\n')
	buf := make([]byte, estimateChunkSize)

	for {
		n, err := file.Read(buf)
		if n > 0 {
			count += int64(bytes.Count(buf[:n], []byte{'\n'}))
			last = buf[n-1]
		}
		if err != nil {
			if err != io.EOF {
				p.log.WithError(err).Debug("line estimate stopped early")
			}
			break
		}
	}

	if last != '\n' {
		count++
	}

	return count
}

func (p *Pipeline) estimateArchive(path string) int64 {
	source, err := reader.Open(path)
	if err != nil {
		return 0
	}
	defer source.Close()

	var count int64
	for source.Next() {
		count++
	}

	return count
}
