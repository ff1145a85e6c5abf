package main

import "github.com/mycourse/elearning-platform/cmd"

func main() {
	cmd.Execute()
}
