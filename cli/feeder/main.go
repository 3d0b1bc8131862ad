package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/daniil11ru/fleettrack/libs/geo"
)

/*
Telemetry feeder.

Drives one truck along a list of waypoints and reports its position to the
tracker's ingest endpoint, one sample per tick.

Usage:
  -server string
    	Tracker address in format <host>:<port> (default "localhost:8080")
  -truck int
    	Truck identifier (require)
  -path string
    	Waypoints as <lat>,<lng>;<lat>,<lng>;... (require)
  -interval int
    	Seconds between samples, Default: 5
  -steps int
    	Number of samples to send, Default: 100

Example

```
./feeder --truck 1 --path "37.77,-122.42;37.78,-122.43" --server localhost:8080
```
*/

type sample struct {
	TruckID   int64     `json:"truck_id"`
	Position  geo.Point `json:"position"`
	SpeedKmh  float64   `json:"speed_kmh"`
	Timestamp time.Time `json:"timestamp"`
}

func parsePath(raw string) ([]geo.Point, error) {
	var waypoints []geo.Point
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad waypoint %q, expected <lat>,<lng>", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude in %q: %v", pair, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude in %q: %v", pair, err)
		}
		waypoints = append(waypoints, geo.Point{Latitude: lat, Longitude: lng})
	}
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("need at least two waypoints")
	}
	return waypoints, nil
}

func main() {
	truckID := 0
	path := ""
	server := ""
	interval := 0
	steps := 0

	flag.IntVar(&truckID, "truck", 0, "Truck identifier (require)")
	flag.StringVar(&path, "path", "", "Waypoints as <lat>,<lng>;<lat>,<lng>;... (require)")
	flag.StringVar(&server, "server", "localhost:8080", "Tracker address in format <host>:<port>")
	flag.IntVar(&interval, "interval", 5, "Seconds between samples")
	flag.IntVar(&steps, "steps", 100, "Number of samples to send")
	flag.Parse()

	if truckID == 0 {
		fmt.Println("Truck identifier is required, see help (-h)")
		os.Exit(1)
	}
	if path == "" {
		fmt.Println("Waypoint path is required, see help (-h)")
		os.Exit(1)
	}

	waypoints, err := parsePath(path)
	if err != nil {
		fmt.Println("Failed to parse the waypoint path:", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("http://%s/ingest", server)
	client := &http.Client{Timeout: 10 * time.Second}

	position := waypoints[0]
	targetIdx := 1

	for step := 0; step < steps; step++ {
		speed := 0.0
		if targetIdx < len(waypoints) {
			// A plausible city hop: 500-800 m at 40-70 km/h.
			hop := 500 + rand.Float64()*300
			speed = 40 + rand.Float64()*30
			position = geo.MoveTowards(position, waypoints[targetIdx], hop)
			if position == waypoints[targetIdx] {
				targetIdx++
			}
		}

		if err := send(client, url, sample{
			TruckID:   int64(truckID),
			Position:  position,
			SpeedKmh:  speed,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			fmt.Println("Failed to send the sample:", err)
		} else {
			fmt.Printf("Sent step %d: %.5f,%.5f at %.0f km/h\n", step+1, position.Latitude, position.Longitude, speed)
		}

		if step < steps-1 {
			time.Sleep(time.Duration(interval) * time.Second)
		}
	}
}

func send(client *http.Client, url string, s sample) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker answered %s", resp.Status)
	}
	return nil
}
