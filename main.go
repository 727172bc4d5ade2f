package main

import "github.com/andreas-weise/individual-variation/cmd"

func main() {
	cmd.Execute()
}
