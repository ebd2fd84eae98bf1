package main

import "log-reconciler/cmd"

func main() {
	cmd.Execute()
}
