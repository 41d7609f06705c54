package main

import "github.com/tanq16/fragget/cmd"

func main() {
	cmd.Execute()
}
