package main

import "github.com/user/vuelink/cmd/vuelink"

func main() {
	cmd.Execute()
}
