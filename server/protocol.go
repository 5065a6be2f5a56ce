package server

import "math"

// Protocol uses single-character JSON keys to keep frames small.
// World coordinates are rounded to 2 decimal places, y up.
//
// Message type constants (value of "t" field):
//
//	Client → Server:
//	  "p" = pointer {"t":"p","x":12.5,"y":80}   predator pursuit target
//	Server → Client:
//	  "w" = welcome {"t":"w","i":"client id","r":"run id","z":120,"k":1}
//	  "s" = state   {"t":"s","r":"run id","n":42,"a":[[x,y,angle,drive]],"f":[food],"p":[x,y,angle],"g":[x,y]}
//	  "d" = done    {"t":"d","r":"run id","n":1234,"s":123.4,"e":2.5}
//	  "e" = error   {"t":"e","m":"message"}
const (
	MsgPointer = "p"
	MsgWelcome = "w"
	MsgState   = "s"
	MsgDone    = "d"
	MsgError   = "e"
)

// ClientMessage is an incoming message from a browser.
type ClientMessage struct {
	Type string  `json:"t"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// WelcomeMsg is sent once on connect.
// k = 1 when the run has a predator.
type WelcomeMsg struct {
	Type     string  `json:"t"`
	ID       string  `json:"i"`
	RunID    string  `json:"r"`
	Size     float64 `json:"z"`
	Predator int     `json:"k"`
}

// FoodDTO is one food source.
// {"x":1.0,"y":2.0,"r":5,"u":10,"v":0.99}
type FoodDTO struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"r"`
	Remaining int64   `json:"u"`
	Intensity float64 `json:"v"`
}

// StateMsg is the per-tick frame broadcast to every client.
// Agents are flat [x, y, heading angle, drive] tuples.
type StateMsg struct {
	Type     string       `json:"t"`
	RunID    string       `json:"r"`
	Step     int64        `json:"n"`
	Agents   [][4]float64 `json:"a"`
	Food     []FoodDTO    `json:"f"`
	Predator *[3]float64  `json:"p,omitempty"`
	Target   *[2]float64  `json:"g,omitempty"`
}

// DoneMsg is broadcast when every source of a run is exhausted.
// s = simulated time, e = wall-clock seconds since the run started.
type DoneMsg struct {
	Type    string  `json:"t"`
	RunID   string  `json:"r"`
	Steps   int64   `json:"n"`
	SimTime float64 `json:"s"`
	Elapsed float64 `json:"e"`
}

// ErrorMsg is sent before the server closes a connection it refused.
type ErrorMsg struct {
	Type    string `json:"t"`
	Message string `json:"m"`
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
