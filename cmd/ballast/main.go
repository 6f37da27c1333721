package main

import "github.com/cameronsjo/ballast/internal/cmd"

func main() {
	cmd.Execute()
}
