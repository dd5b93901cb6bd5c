package main

import "github.com/subflowhq/subflow/cmd"

func main() {
	cmd.Execute()
}
