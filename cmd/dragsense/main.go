package main

import (
	"context"
	"os"

	"github.com/offlinefirst/dragsense/internal/cmd"
)

func main() {
	root := cmd.NewRootCommand()
	if err := root.Execute(context.Background(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
