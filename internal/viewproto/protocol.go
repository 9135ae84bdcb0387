package viewproto

import (
	"github.com/snrgy-studios/glorb-animator/internal/geometry"
	"github.com/snrgy-studios/glorb-animator/internal/palette"
	"github.com/snrgy-studios/glorb-animator/internal/render"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
)

// Version is the viewer protocol version.
const Version = "0.1"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeSeek      = "SEEK"
	TypePause     = "PAUSE"
	TypeResume    = "RESUME"
	TypeFrame     = "FRAME"
	TypeStatus    = "STATUS"
)

// Client -> Server. First message on the viewer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Colors requests per-face hex colors in FRAME messages (default true).
	Colors *bool `json:"colors,omitempty"`
}

// Client -> Server. SEEK carries Index; PAUSE and RESUME carry nothing.
type ControlMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Index           *int   `json:"index,omitempty"`
}

// HTTP response for GET /v1/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string       `json:"protocol_version"`
	RunID           string       `json:"run_id"`
	Seed            int64        `json:"seed"`
	Playback        PlaybackInfo `json:"playback"`
	Geometry        Geometry     `json:"geometry"`
	Palette         PaletteInfo  `json:"palette"`
}

type PlaybackInfo struct {
	MinIndex   int  `json:"min_index"`
	MaxIndex   int  `json:"max_index"`
	Loop       bool `json:"loop"`
	IntervalMs int  `json:"interval_ms"`
}

type Geometry struct {
	NumFaces  int                  `json:"num_faces"`
	Vertices  [][3]float64         `json:"vertices"`
	Faces     [][3]int             `json:"faces"`
	Neighbors [][3]int             `json:"neighbors"`
	Centroids [][3]float64         `json:"centroids"`
	Spherical []geometry.Spherical `json:"spherical"`
}

type PaletteInfo struct {
	Background string `json:"background"`
	Food       string `json:"food"`
}

// Server -> Client. Sent for every presented index.
type FrameMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Index           int          `json:"index"`
	Digest          string       `json:"digest"`
	Paused          bool         `json:"paused"`
	Colors          []string     `json:"colors,omitempty"`
	Snakes          []SnakeState `json:"snakes"`
	Food            []int        `json:"food"`
	Events          sim.Events   `json:"events"`
}

type SnakeState struct {
	ID        string `json:"id"`
	Body      []int  `json:"body"`
	MaxLength int    `json:"max_length"`
	Color     string `json:"color"`
}

// Server -> Client. Answer to a control message.
type StatusMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Paused          bool   `json:"paused"`
	Cursor          int    `json:"cursor"`
	Highest         int    `json:"highest"`
	Error           string `json:"error,omitempty"`
}

// NewGeometry copies g into its wire form.
func NewGeometry(g *geometry.Graph) Geometry {
	out := Geometry{
		NumFaces:  g.NumFaces(),
		Faces:     g.Faces(),
		Neighbors: g.Adjacency(),
	}
	for _, v := range g.Vertices() {
		out.Vertices = append(out.Vertices, [3]float64(v))
	}
	for i, c := range g.Centroids() {
		out.Centroids = append(out.Centroids, [3]float64(c))
		out.Spherical = append(out.Spherical, g.CentroidSpherical(i))
	}
	return out
}

// NewFrame builds the FRAME message for f. colors may be false to omit the
// per-face color list.
func NewFrame(f sim.Frame, numFaces int, pal palette.Palette, colors, paused bool) FrameMsg {
	msg := FrameMsg{
		Type:            TypeFrame,
		ProtocolVersion: Version,
		Index:           f.Index,
		Digest:          f.Digest,
		Paused:          paused,
		Snakes:          make([]SnakeState, 0, len(f.Snakes)),
		Food:            append([]int{}, f.Food...),
		Events:          f.Events,
	}
	for _, sn := range f.Snakes {
		msg.Snakes = append(msg.Snakes, SnakeState{
			ID:        sn.ID,
			Body:      append([]int(nil), sn.Body...),
			MaxLength: sn.MaxLength,
			Color:     sn.Color.Clamped().Hex(),
		})
	}
	if colors {
		msg.Colors = render.HexColors(f.State, numFaces, pal)
	}
	return msg
}
