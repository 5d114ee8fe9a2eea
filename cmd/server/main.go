package main

import "timepay/internal/app/server"

func main() {
	server.Run()
}
