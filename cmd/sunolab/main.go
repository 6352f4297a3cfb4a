package main

import "github.com/NielsdaWheelz/suno-demo/cmd/sunolab/cli"

func main() {
	cli.Execute()
}
