package sensors

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gr-butler/hydrostation/utils"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

// Hygrometer reads a DHT22 bound to the kernel dht11 IIO driver
// (dtoverlay=dht11,gpiopin=4). The driver reports milli-units and often
// fails a read with EIO, so reads are retried.
type Hygrometer struct {
	dir   string
	clock clockwork.Clock

	Retries   int
	RetryWait time.Duration
}

func NewHygrometer(dir string, clock clockwork.Clock) *Hygrometer {
	return &Hygrometer{
		dir:       dir,
		clock:     clock,
		Retries:   3,
		RetryWait: 2 * time.Second,
	}
}

func (h *Hygrometer) Read(ctx context.Context) (RelHumidity, TemperatureC, error) {
	var err error
	for i := 0; i <= h.Retries; i++ {
		if i > 0 {
			if serr := utils.Sleep(ctx, h.clock, h.RetryWait); serr != nil {
				return 0, 0, serr
			}
		}
		var hum, temp float64
		hum, err = h.readMilli("in_humidityrelative_input")
		if err != nil {
			logger.Debugf("DHT22 humidity read failed [%v]", err)
			continue
		}
		temp, err = h.readMilli("in_temp_input")
		if err != nil {
			logger.Debugf("DHT22 temperature read failed [%v]", err)
			continue
		}
		return RelHumidity(hum), TemperatureC(temp), nil
	}
	return 0, 0, fmt.Errorf("%w: dht22: %v", ErrRead, err)
}

func (h *Hygrometer) readMilli(name string) (float64, error) {
	raw, err := os.ReadFile(filepath.Join(h.dir, name))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s is not a number", name)
	}
	return v / 1000, nil
}
