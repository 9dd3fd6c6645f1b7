package main

import "github.com/contisim/contisim/cmd/contisim/cmd"

func main() {
	cmd.Execute()
}
