package main

import (
	"github.com/ghivert/brioche/cmd/brioche/commands"
)

func main() {
	commands.Execute()
}
