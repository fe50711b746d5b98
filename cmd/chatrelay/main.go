// Package main provides the entry point for the chat relay.
package main

import (
	"fmt"
	"os"

	"github.com/itzenzy2/PersonalChatBot/cmd/chatrelay/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
