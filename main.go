package main

import "thoreinstein.com/adopr/cmd"

func main() {
	cmd.Execute()
}
