//go:build tinygo && bootdebug

package app

import (
	"machine"
	"sync"
	"time"

	"cruise/hal"
)

var (
	bootDiagMu      sync.Mutex
	bootDiagStep    string
	bootDiagStarted sync.Once
)

func bootDiagSetStep(msg string) {
	bootDiagMu.Lock()
	bootDiagStep = msg
	bootDiagMu.Unlock()
}

// bootDiagStart repeats the current boot step on the UART and USB CDC until
// the unit is reset, so a late-attached console still sees where boot stopped.
func bootDiagStart(h hal.HAL) {
	if h == nil {
		return
	}
	bootDiagStarted.Do(func() {
		l := h.Logger()
		go func() {
			for {
				bootDiagMu.Lock()
				step := bootDiagStep
				bootDiagMu.Unlock()

				line := "bootdiag: " + step
				if l != nil {
					l.WriteLineString(line)
				}
				if usb := machine.USBCDC; usb != nil {
					_, _ = usb.Write([]byte(line + "\r\n"))
				}
				time.Sleep(time.Second)
			}
		}()
	})
}
