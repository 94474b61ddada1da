package main

import "github.com/swind/go-retrace/cmd"

func main() {
	cmd.Execute()
}
