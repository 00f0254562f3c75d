package elm

import "log"

// selfTestSequence is the scripted startup check: interpreter reset and
// identification (ATZ, battery voltage, protocol, version), then a sweep
// of the common mode 01/09 queries and stored trouble codes.
var selfTestSequence = []struct {
	label string
	query string
}{
	{"ATZ", "ATZ\r"},
	{"ATRV", "ATRV\r"},
	{"ATDP", "ATDP\r"},
	{"ATI", "ATI\r"},
	{"VIN", "09 02\r"},
	{"ECUName", "09 0A\r"},
	{"MIL", "01 01\r"},
	{"PID01", "01 00\r"},
	{"PID09", "09 00\r"},
	{"DTC", "03\r"},
}

// SelfTest walks the scripted interface check through the dispatcher.
// Failures are logged and the sweep continues; a dead interpreter shows up
// as a run of timeouts, not a startup abort.
func SelfTest(d *Dispatcher) {
	log.Printf("[selftest] running interface check (%d queries)", len(selfTestSequence))
	for _, step := range selfTestSequence {
		payload, err := d.Dispatch(step.query)
		if err != nil {
			log.Printf("[selftest] %s: %v", step.label, err)
			continue
		}
		if payload == "" {
			log.Printf("[selftest] %s: no classifiable reply", step.label)
			continue
		}
		log.Printf("[selftest] %s: %s", step.label, payload)
	}
}
