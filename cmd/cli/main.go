package main

import (
	"parcel-tracking/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
