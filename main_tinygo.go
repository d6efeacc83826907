//go:build tinygo

package main

import (
	"cruise/app"
	"cruise/hal"
)

func main() {
	app.Run(hal.New())
}
