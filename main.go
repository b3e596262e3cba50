package main

import "github.com/Ray0907/mysql-analyzer-mcp/cmd"

func main() {
	cmd.Execute()
}
