package main

import "github.com/relloyd/retail-etl/cmd"

func main() {
	cmd.Execute()
}
