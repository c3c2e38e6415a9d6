package main

import "github.com/pricereg/priceregd/internal/cli"

func main() {
	cli.Execute()
}
