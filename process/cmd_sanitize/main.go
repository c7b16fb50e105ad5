package main

import "mankeu/process/sanitize"

func main() {
	sanitize.Run()
}
