package main

import (
	"BuggyFM/cmd"
)

func main() {
	cmd.Execute()
}
