// Command sunolab-namer is a reference naming plugin. Point naming.plugin_path
// at the built binary to label clusters out of process.
package main

import (
	"github.com/NielsdaWheelz/suno-demo/internal/naming"
	"github.com/NielsdaWheelz/suno-demo/internal/plugin"
)

func main() {
	plugin.Serve(naming.HashNamer{})
}
