package main

import "github.com/oshokin/lightshow/cmd/lightshow/cmd"

func main() {
	cmd.Execute()
}
