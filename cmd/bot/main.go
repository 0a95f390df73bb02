package main

import "racebot/cmd/bot/cmd"

func main() {
	cmd.Execute()
}
