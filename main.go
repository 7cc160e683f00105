package main

import "github.com/Mohsinsiddi/w3bond/cmd"

func main() {
	cmd.Execute()
}
