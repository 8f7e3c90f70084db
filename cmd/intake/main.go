package main

import "github.com/goliatone/go-intake/internal/cli/commands"

func main() {
	commands.Execute()
}
