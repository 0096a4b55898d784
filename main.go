package main

import "github.com/wolfitem/news-enricher/cmd"

func main() {
	cmd.Execute()
}
