package main

import "github.com/KaramelBytes/epsilon-cli/cmd"

func main() {
	cmd.Execute()
}
