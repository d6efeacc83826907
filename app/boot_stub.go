//go:build !(tinygo && bootdebug)

package app

import "cruise/hal"

func bootScreen(hal.HAL, string) {}
