package main

import "github.com/fakeyudi/hats/cmd"

func main() {
	cmd.Execute()
}
