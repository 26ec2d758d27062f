package main

import "github.com/fiffeek/inputswitcher/cmd"

func main() {
	cmd.Execute()
}
