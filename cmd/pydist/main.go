package main

import "github.com/pydist/pydist/cmd/pydist/cmd"

func main() {
	cmd.Execute()
}
