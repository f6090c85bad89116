package main

import "github.com/vietddude/buswatch/internal/cli"

func main() {
	cli.Execute()
}
