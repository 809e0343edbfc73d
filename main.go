package main

import "github.com/Manu343726/dwarfidx/cmd"

func main() {
	cmd.Execute()
}
