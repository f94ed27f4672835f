package main

import "github.com/oshokin/lightshow/cmd/lightctl/cmd"

func main() {
	cmd.Execute()
}
