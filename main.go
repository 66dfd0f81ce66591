package main

import "github.com/hotpath-dev/hotpath/cmd"

func main() {
	cmd.Execute()
}
