package main

import "github.com/firmfuzz/firmfuzz/cmd/firmfuzz"

func main() {
	firmfuzz.Execute()
}
