package main

import "github.com/parmesh/parmesh/cmd"

func main() {
	cmd.Execute()
}
