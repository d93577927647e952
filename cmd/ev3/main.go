package main

import (
	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/ev3-tool/internal/cli"
	"github.com/vitaminmoo/ev3-tool/internal/logging"
)

func main() {
	var root cli.CLI
	ctx := kong.Parse(&root,
		kong.Name("ev3"),
		kong.Description("Command-line control of an EV3 brick over serial, bluetooth or wifi."),
		kong.UsageOnError(),
	)
	logging.Setup(root.Verbose)
	ctx.FatalIfErrorf(ctx.Run(&root))
}
