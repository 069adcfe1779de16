package main

import "github.com/wcwagner/wwdc-dl/cmd"

func main() {
	cmd.Execute()
}
