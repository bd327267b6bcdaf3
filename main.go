package main

import "github.com/redactyl/promptscan/cmd/promptscan"

func main() { promptscan.Execute() }
