package main

import "github.com/elskito/TaxHacker/process/sanitize"

func main() {
	sanitize.Run()
}
