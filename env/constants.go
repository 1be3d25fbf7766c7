package env

import "time"

// BCM pin names as registered by periph.io/x/host.
const (
	GPIO04 = "GPIO4" // DHT22 data (dht11 overlay)
	GPIO02 = "GPIO2" // SDA
	GPIO03 = "GPIO3" // SCL
	GPIO17 = "GPIO17"
	GPIO22 = "GPIO22"
	GPIO23 = "GPIO23"
	GPIO24 = "GPIO24"
	GPIO27 = "GPIO27"

	LinkLed    = GPIO17
	BrokerLed  = GPIO27
	TipSensor  = GPIO22 // hall effect switch, active low
	RangerTrig = GPIO23
	RangerEcho = GPIO24

	BMP280_I2C = 0x76

	// /sys path of the kernel dht11 driver bound to GPIO04
	HygrometerPath = "/sys/bus/iio/devices/iio:device0"

	StationRain     = "rain"
	StationDrainage = "drainage"

	TopicRoot        = "ic"
	RainStationName  = "pluviometro"
	DrainageBaseName = "escoamentoTelhado"

	BrokerPort = 8883

	// tipping bucket geometry
	BucketVolumeCm3  = 2.4
	CollectorAreaCm2 = 63.24

	// drainage tank
	TankRadiusCm    = 30.0
	SensorOffsetCm  = 0.3
	EnvSampleCount  = 20
	LinkTimeout     = time.Second * 10
	LinkBlinkPeriod = time.Millisecond * 250
	BrokerRetryWait = time.Second * 5
	BrokerBlink     = time.Millisecond * 250

	RainCycle       = time.Minute * 5
	RainTipWindow   = time.Second * 295
	RainIdleStatus  = time.Second
	TipPollInterval = time.Millisecond * 150
	TipDebounce     = time.Millisecond * 150
	ProgressEvery   = time.Second * 5

	DrainageCycle     = time.Second * 30
	DrainageHeartbeat = time.Second * 5

	ReportFreqMin = 15
	HPaToInHg     = 0.02953
	MmToInch      = 25.4
)
