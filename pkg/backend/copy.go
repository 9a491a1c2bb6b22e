package backend

import (
	"errors"
	"fmt"
	"io"
)

// copyChunks streams src into dst in ChunkSize pieces, reporting cumulative
// progress after every chunk written. total is the source length passed
// through to onProgress unchanged.
func copyChunks(src io.Reader, dst io.Writer, total int64, onProgress ProgressFunc) error {
	var written int64

	buf := make([]byte, ChunkSize)

	for {
		nr, err := src.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			nw, werr := dst.Write(buf[0:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			if werr != nil {
				return fmt.Errorf("write destination: %w", werr)
			}

			if nr != nw {
				return fmt.Errorf("write destination: %w", io.ErrShortWrite)
			}

			written += int64(nw)

			if onProgress != nil {
				onProgress(total, written)
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
	}
}
