package main

import "github.com/Jasonmellet/hogeye-seo-publisher-2026/cmd"

func main() {
	cmd.Execute()
}
