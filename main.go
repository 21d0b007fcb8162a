package main

import "storefront/internal/commands"

func main() {
	commands.Execute()
}
