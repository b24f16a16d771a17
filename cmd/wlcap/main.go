package main

import "github.com/dkasak/wlcap/cmd/wlcap/commands"

func main() {
	commands.Execute()
}
