package main

import "github.com/dsemenov/wakeup-alarm/cmd/wakeup-alarm/cmd"

func main() {
	cmd.Execute()
}
