package sensors

import (
	"errors"

	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

/*
 * Sensors is responsible for reading the sensors and converting sensor output to real values.
 */

var (
	ErrSelfTest = errors.New("sensor self test failed")
	ErrRead     = errors.New("sensor read failed")
)

type TemperatureC float64
type PressurePa float64
type AltitudeM float64
type RelHumidity float64
type Centimeters float64

func (t TemperatureC) Float64() float64 {
	return float64(t)
}

func (p PressurePa) Float64() float64 {
	return float64(p)
}

func (a AltitudeM) Float64() float64 {
	return float64(a)
}

func (r RelHumidity) Float64() float64 {
	return float64(r)
}

func (c Centimeters) Float64() float64 {
	return float64(c)
}

// InitHost loads the periph drivers and opens the I²C bus. An empty name
// opens the default bus.
func InitHost(busName string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		logger.Errorf("Failed to init periph host [%v]", err)
		return nil, err
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		logger.Errorf("Failed to open I²C [%v]", err)
		return nil, err
	}
	return bus, nil
}
