package provider

import (
	"errors"
	"io"

	"github.com/cloudwego/eino/schema"
)

// streamBuffer is the number of fragments buffered between producer and consumer.
const streamBuffer = 8

// pump forwards fragments from next into a pipe until next returns io.EOF or
// an error, or the consumer closes its reader. release runs exactly once
// when the producer stops and must close the upstream stream.
func pump(next func() (string, error), release func()) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](streamBuffer)

	go func() {
		defer release()
		defer sw.Close()

		for {
			text, err := next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				sw.Send("", err)
				return
			}
			if text == "" {
				continue
			}
			if closed := sw.Send(text, nil); closed {
				return
			}
		}
	}()

	return sr
}
