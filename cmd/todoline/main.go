package main

import "todoline/cmd/todoline/cmd"

func main() {
	cmd.Execute()
}
