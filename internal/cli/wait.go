package cli

import (
	"bufio"
	"context"
	"io"
)

// waitForOperator blocks until a line (or EOF) is read from in, or ctx is
// done. The reading goroutine is left behind on cancellation; it ends with
// the process.
func waitForOperator(ctx context.Context, in io.Reader) {
	read := make(chan struct{})
	go func() {
		defer close(read)
		_, _ = bufio.NewReader(in).ReadString('\n')
	}()

	select {
	case <-read:
	case <-ctx.Done():
	}
}
