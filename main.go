package main

import "github.com/forgecore/enginecore/cmd/enginecoreed"

// version can be set during build with -ldflags.
var version = "dev"

func main() {
	enginecoreed.SetVersion(version)
	enginecoreed.Execute()
}
