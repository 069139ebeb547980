package main

import "github.com/Norgate-AV/protogen/cmd"

func main() {
	cmd.Execute()
}
