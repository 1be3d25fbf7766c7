package sensors

import (
	"fmt"
	"math"

	"github.com/gr-butler/hydrostation/buffer"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

const seaLevelhPa = 1013.25

type EnvSample struct {
	Temperature TemperatureC
	Pressure    PressurePa
	Altitude    AltitudeM
}

// EnvSensor is a temperature/pressure chip. Begin is its self test and is
// run before every averaged read.
type EnvSensor interface {
	Begin() error
	Sample() (EnvSample, error)
}

type BMP280 struct {
	bus  i2c.Bus
	addr uint16
	dev  *bmxx80.Dev
}

func NewBMP280(bus i2c.Bus, addr uint16) *BMP280 {
	return &BMP280{bus: bus, addr: addr}
}

func (b *BMP280) Begin() error {
	if b.dev != nil {
		_ = b.dev.Halt()
		b.dev = nil
	}
	dev, err := bmxx80.NewI2C(b.bus, b.addr, &bmxx80.DefaultOpts)
	if err != nil {
		return err
	}
	b.dev = dev
	return nil
}

func (b *BMP280) Sample() (EnvSample, error) {
	if b.dev == nil {
		return EnvSample{}, ErrSelfTest
	}
	em := physic.Env{}
	if err := b.dev.Sense(&em); err != nil {
		return EnvSample{}, err
	}
	pa := float64(em.Pressure) / float64(physic.Pascal)
	return EnvSample{
		Temperature: TemperatureC(em.Temperature.Celsius()),
		Pressure:    PressurePa(pa),
		Altitude:    Altitude(PressurePa(pa)),
	}, nil
}

// Altitude from the international barometric formula against a standard
// sea level pressure.
func Altitude(p PressurePa) AltitudeM {
	hPa := float64(p) / 100
	return AltitudeM(44330 * (1 - math.Pow(hPa/seaLevelhPa, 0.1903)))
}

// Atmosphere averages a burst of samples to damp sensor noise.
type Atmosphere struct {
	sensor   EnvSensor
	temp     *buffer.SampleBuffer
	pressure *buffer.SampleBuffer
	altitude *buffer.SampleBuffer
}

func NewAtmosphere(sensor EnvSensor, samples int) *Atmosphere {
	return &Atmosphere{
		sensor:   sensor,
		temp:     buffer.NewBuffer(samples),
		pressure: buffer.NewBuffer(samples),
		altitude: buffer.NewBuffer(samples),
	}
}

// Read runs the self test then returns the mean of the configured number of
// back to back samples. Any failure returns a zero sample and an error.
func (a *Atmosphere) Read() (EnvSample, error) {
	if err := a.sensor.Begin(); err != nil {
		logger.Errorf("BMP280 self test failed [%v]", err)
		return EnvSample{}, fmt.Errorf("%w: %v", ErrSelfTest, err)
	}
	a.temp.Reset()
	a.pressure.Reset()
	a.altitude.Reset()
	for i := 0; i < a.temp.GetSize(); i++ {
		s, err := a.sensor.Sample()
		if err != nil {
			logger.Errorf("BMP280 read failed [%v]", err)
			return EnvSample{}, fmt.Errorf("%w: %v", ErrRead, err)
		}
		a.temp.AddItem(s.Temperature.Float64())
		a.pressure.AddItem(s.Pressure.Float64())
		a.altitude.AddItem(s.Altitude.Float64())
	}
	t, _, _, _ := a.temp.GetAverageMinMaxSum()
	p, _, _, _ := a.pressure.GetAverageMinMaxSum()
	alt, _, _, _ := a.altitude.GetAverageMinMaxSum()
	return EnvSample{
		Temperature: TemperatureC(t),
		Pressure:    PressurePa(p),
		Altitude:    AltitudeM(alt),
	}, nil
}
