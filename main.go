package main

import "github.com/drgolem/samplepool/cmd"

func main() {
	cmd.Execute()
}
