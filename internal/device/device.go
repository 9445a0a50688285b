// Package device identifies the scanning device from its User-Agent header.
// The engine treats the device as advisory metadata for logs and the scan
// history; it never participates in verification decisions.
package device

import (
	"fmt"

	"github.com/mssola/useragent"
)

// Info summarizes a scanning device.
type Info struct {
	Browser string
	Version string
	OS      string
	Mobile  bool
	Bot     bool
}

// Parse derives device info from a raw User-Agent string. Empty input yields
// a zero Info.
func Parse(raw string) Info {
	if raw == "" {
		return Info{}
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	return Info{
		Browser: name,
		Version: version,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// String renders a compact one-line description for logs.
func (i Info) String() string {
	if i.Browser == "" && i.OS == "" {
		return "unknown"
	}
	kind := "desktop"
	switch {
	case i.Bot:
		kind = "bot"
	case i.Mobile:
		kind = "mobile"
	}
	return fmt.Sprintf("%s %s on %s (%s)", i.Browser, i.Version, i.OS, kind)
}
