package main

import "github.com/goliatone/go-paramkit/cmd/paramkit/commands"

func main() {
	commands.Execute()
}
