package main

import "github.com/kiuryy/extbuild/cmd"

func main() {
	cmd.Execute()
}
