package codec

import (
	"strings"
)

// CapabilityReport is the outcome of checking required formats against a registry.
type CapabilityReport struct {
	// Available lists every name the registry can decode.
	Available []string `json:"available"`
	// Supported lists the required names the registry can decode.
	Supported []string `json:"supported"`
	// Missing lists the required names nothing is registered for.
	Missing []string `json:"missing"`
}

// OK reports whether every required format is supported.
func (c CapabilityReport) OK() bool {
	return len(c.Missing) == 0
}

// Capabilities checks each required format name against the registry. It is the
// startup check a host application runs once before converting.
func (r *Registry) Capabilities(required []string) CapabilityReport {
	report := CapabilityReport{Available: r.FormatNames()}
	for _, name := range required {
		if len(r.DecodersFor(name)) > 0 {
			report.Supported = append(report.Supported, strings.ToLower(name))
		} else {
			report.Missing = append(report.Missing, strings.ToLower(name))
		}
	}
	return report
}
