package main

import "github.com/strrl/preludium/internal/cmd"

func main() {
	cmd.Execute()
}
