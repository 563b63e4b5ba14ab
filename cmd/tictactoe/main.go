package main

import "github.com/jaminalder/tictactoe-timeline/internal/cli"

func main() {
	cli.Execute()
}
