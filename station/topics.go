package station

import "fmt"

// Topics holds every topic a station publishes on. It is built once at
// startup and never changed.
type Topics struct {
	Root   string
	Status string

	BMPTemperature string
	BMPPressure    string
	BMPAltitude    string

	// rain gauge
	DHTTemperature string
	DHTHumidity    string
	Tips           string
	PartialTips    string
	Rate           string
	Depth          string

	// drainage
	Radius    string
	Flow      string
	Level     string
	Volume    string
	Reference string
	Distance  string
}

func bmpTopics(root string) (string, string, string) {
	return root + "/BMP280/Temperatura(°C)",
		root + "/BMP280/Pressao(Pa)",
		root + "/BMP280/Altitude(m)"
}

func RainTopics(prefix string, name string) Topics {
	root := prefix + "/" + name
	t := Topics{
		Root:           root,
		Status:         root + "/Status",
		DHTTemperature: root + "/DHT22/Temperatura(°C)",
		DHTHumidity:    root + "/DHT22/Humidade(%)",
		Tips:           root + "/Oscilacoes/Por Ciclo",
		PartialTips:    root + "/Oscilacoes/Parciais",
		Rate:           root + "/Chuva/TaxaPrecipitacao(mmh)",
		Depth:          root + "/Chuva/Milimetros(mm)",
	}
	t.BMPTemperature, t.BMPPressure, t.BMPAltitude = bmpTopics(root)
	return t
}

// DrainageTopics builds the topic set for drainage unit n, e.g.
// ic/escoamentoTelhado-1/Volume(cm3).
func DrainageTopics(prefix string, base string, unit int) Topics {
	root := fmt.Sprintf("%s/%s-%d", prefix, base, unit)
	t := Topics{
		Root:      root,
		Status:    root + "/Status",
		Radius:    root + "/RaioGalao",
		Flow:      root + "/Escoamento(cm3 por s)",
		Level:     root + "/NivelAgua(cm)",
		Volume:    root + "/Volume(cm3)",
		Reference: root + "/DistanciaAgua(1) (cm)",
		Distance:  root + "/DistanciaAgua(cm)",
	}
	t.BMPTemperature, t.BMPPressure, t.BMPAltitude = bmpTopics(root)
	return t
}
