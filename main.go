package main

import "order-relay/cmd"

func main() {
	cmd.Execute()
}
