package main

import "github.com/OpenTraceLab/OpenTracePool/cmd/otp/cmd"

func main() {
	cmd.Execute()
}
