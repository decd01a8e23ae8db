package main

import "github.com/regdesk/portalserver/cmd"

func main() {
	cmd.Execute()
}
