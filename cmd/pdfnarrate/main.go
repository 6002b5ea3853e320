package main

import "github.com/forPelevin/pdfnarrate/internal/cli"

func main() {
	cli.Main()
}
