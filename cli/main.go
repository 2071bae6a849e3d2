package main

import "github.com/parlorchat/parlor/cli/cmd"

func main() {
	cmd.Execute()
}
