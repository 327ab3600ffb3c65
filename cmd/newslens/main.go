package main

import (
	"newslens/cmd/cmd"
	"newslens/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
