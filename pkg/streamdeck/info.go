package streamdeck

import (
	"encoding/json"
	"fmt"
)

// Info is the JSON document passed with -info at launch.
type Info struct {
	Application struct {
		Language string `json:"language"`
		Platform string `json:"platform"`
		Version  string `json:"version"`
	} `json:"application"`
	Plugin struct {
		UUID    string `json:"uuid"`
		Version string `json:"version"`
	} `json:"plugin"`
	Devices []Device `json:"devices"`
}

// Device describes a connected panel.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
	Size struct {
		Columns int `json:"columns"`
		Rows    int `json:"rows"`
	} `json:"size"`
}

// Keys returns the number of buttons on the device.
func (d Device) Keys() int {
	return d.Size.Columns * d.Size.Rows
}

// ParseInfo decodes the launch info document. An empty string yields an
// empty Info.
func ParseInfo(s string) (*Info, error) {
	var info Info
	if s == "" {
		return &info, nil
	}
	if err := json.Unmarshal([]byte(s), &info); err != nil {
		return nil, fmt.Errorf("parse info: %w", err)
	}
	return &info, nil
}
