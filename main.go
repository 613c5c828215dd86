package main

import "github.com/cham-tech/SmartSave/cmd"

func main() {
	cmd.Execute()
}
