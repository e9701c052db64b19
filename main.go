package main

import (
	"github.com/nhle/mail2joplin/cmd"
)

// version will be set by the release build
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
