package main

import "github.com/avgplus/avg-release/cmd/avg-release/cmd"

func main() {
	cmd.Execute()
}
