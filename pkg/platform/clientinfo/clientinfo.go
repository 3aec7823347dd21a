// Package clientinfo derives browser and platform facts from a User-Agent.
package clientinfo

import (
	"github.com/mssola/useragent"
)

// Info summarizes the client that submitted an application.
type Info struct {
	IP             string `json:"ip,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
	DeviceID       string `json:"deviceId,omitempty"`
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browserVersion,omitempty"`
	OS             string `json:"os,omitempty"`
	Mobile         bool   `json:"mobile"`
	Bot            bool   `json:"bot"`
}

// Parse builds Info from raw request metadata. An empty User-Agent yields
// only the IP and device id.
func Parse(ip, userAgent, deviceID string) Info {
	info := Info{IP: ip, UserAgent: userAgent, DeviceID: deviceID}
	if userAgent == "" {
		return info
	}

	ua := useragent.New(userAgent)
	info.Browser, info.BrowserVersion = ua.Browser()
	info.OS = ua.OS()
	info.Mobile = ua.Mobile()
	info.Bot = ua.Bot()
	return info
}
