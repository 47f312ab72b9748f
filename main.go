package main

import "github.com/nextlevelbuilder/discode/cmd"

func main() {
	cmd.Execute()
}
