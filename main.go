package main

import "barkpark-backend/cmd"

func main() {
	cmd.Run()
}
