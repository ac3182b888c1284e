package main

import "github.com/dkeye/Attend/cmd/attendctl/cmd"

func main() {
	cmd.Execute()
}
