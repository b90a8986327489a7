package main

import "github.com/redox-os/ion-sub003/cmd"

func main() {
	cmd.Execute()
}
