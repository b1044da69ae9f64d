package main

import "github.com/santiagomed/appcannon/cli"

func main() {
	cli.Execute()
}
