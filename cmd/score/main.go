// Command creatorscore scores creator snapshots from files or stdin without
// running the HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "creatorscore:", err)
		os.Exit(1)
	}
}
