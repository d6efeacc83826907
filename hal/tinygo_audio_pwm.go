//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoAudio struct {
	pwm *pwmAudioOut
}

func newTinyGoAudio() Audio {
	return &tinyGoAudio{pwm: newPWMAudioOut(machine.GP2)}
}

func (a *tinyGoAudio) Beep(freqHz uint32, d time.Duration) {
	if a.pwm == nil || freqHz == 0 || d <= 0 {
		return
	}
	if err := a.pwm.tone(freqHz); err != nil {
		return
	}
	go func() {
		time.Sleep(d)
		a.pwm.silence()
	}()
}

type pwmDevice interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetTop(top uint32)
	Top() uint32
	Set(channel uint8, value uint32)
	Enable(enable bool)
}

type pwmAudioOut struct {
	pin machine.Pin
	pwm pwmDevice
	ch  uint8
	top uint32

	started bool
}

func newPWMAudioOut(pin machine.Pin) *pwmAudioOut {
	pwm := pwmForPin(pin)
	if pwm == nil {
		return nil
	}
	return &pwmAudioOut{pin: pin, pwm: pwm}
}

func pwmForPin(pin machine.Pin) pwmDevice {
	slice, err := machine.PWMPeripheral(pin)
	if err != nil {
		return nil
	}
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	default:
		return nil
	}
}

// tone drives a 50% duty square wave at freqHz.
func (a *pwmAudioOut) tone(freqHz uint32) error {
	if err := a.pwm.Configure(machine.PWMConfig{Period: uint64(1e9 / freqHz)}); err != nil {
		return err
	}
	ch, err := a.pwm.Channel(a.pin)
	if err != nil {
		return err
	}
	a.ch = ch
	a.top = a.pwm.Top()
	a.pwm.Set(a.ch, a.top/2)
	a.pwm.Enable(true)
	a.started = true
	return nil
}

func (a *pwmAudioOut) silence() {
	if !a.started {
		return
	}
	a.pwm.Set(a.ch, 0)
	a.pwm.Enable(false)
	a.started = false
}
