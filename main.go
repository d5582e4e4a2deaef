package main

import "github.com/ValentinKolb/rconn/cmd"

func main() {
	cmd.Execute()
}
