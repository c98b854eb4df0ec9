package sensor

// Dummy returns fixed readings. Useful on a workstation with no I²C bus.
type Dummy struct {
	Temperature float64
	Humidity    float64
}

func NewDummy(temperature, humidity float64) *Dummy {
	return &Dummy{Temperature: temperature, Humidity: humidity}
}

func (d *Dummy) Begin() (bool, error)              { return true, nil }
func (d *Dummy) ReadTemperature() (float64, error) { return d.Temperature, nil }
func (d *Dummy) ReadHumidity() (float64, error)    { return d.Humidity, nil }
func (d *Dummy) Halt() error                       { return nil }
