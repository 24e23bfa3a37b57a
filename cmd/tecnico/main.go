package main

import (
	"fmt"
	"os"

	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error [%s]: %v\n", apperrors.KindOf(err), err)
		os.Exit(1)
	}
}
