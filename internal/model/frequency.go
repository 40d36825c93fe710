package model

// Frequency is the run interval of a crawl task, as an ISO 8601 duration
// code such as "PT1H". The client does not interpret it.
type Frequency string

const (
	Hourly      Frequency = "PT1H"
	EverySixHrs Frequency = "PT6H"
	Daily       Frequency = "P1D"
	Weekly      Frequency = "P7D"
)

// Frequencies lists the codes offered when creating a task.
var Frequencies = []Frequency{Hourly, EverySixHrs, Daily, Weekly}

var frequencyLabels = map[Frequency]string{
	Hourly:      "hourly",
	EverySixHrs: "every 6 hours",
	Daily:       "daily",
	Weekly:      "weekly",
}

// Label returns a human readable name for well-known codes and the raw code
// otherwise.
func (f Frequency) Label() string {
	if l, ok := frequencyLabels[f]; ok {
		return l
	}
	return string(f)
}
