package cli

import (
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/dmitrijs2005/mediaxfer/internal/client/media/native"
)

const progressTemplate = `{{string . "name"}} {{counters . }} {{bar . }} {{percent . }} {{speed . }}`

// progressFor returns a progress bar hook when w is a terminal, nil otherwise.
func progressFor(w io.Writer) native.ProgressFunc {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return nil
	}
	return newProgressFunc(w)
}

func newProgressFunc(w io.Writer) native.ProgressFunc {
	return func(name string, total int64) io.WriteCloser {
		bar := pb.New64(total)
		bar.Set(pb.Bytes, true)
		bar.SetTemplate(progressTemplate)
		bar.Set("name", name)
		bar.SetWriter(w)
		bar.Start()
		return barWriter{bar: bar}
	}
}

type barWriter struct {
	bar *pb.ProgressBar
}

func (b barWriter) Write(p []byte) (int, error) {
	b.bar.Add(len(p))
	return len(p), nil
}

func (b barWriter) Close() error {
	b.bar.Finish()
	return nil
}
