package viewproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/snrgy-studios/glorb-animator/internal/geometry"
	"github.com/snrgy-studios/glorb-animator/internal/palette"
	"github.com/snrgy-studios/glorb-animator/internal/sim"
	"github.com/snrgy-studios/glorb-animator/internal/viewproto"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip validates v as it appears on the wire.
func roundTrip(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate %s: %v", raw, err)
	}
}

func TestSchemas_ClientMessages(t *testing.T) {
	sub := compile(t, "subscribe.schema.json")
	ctl := compile(t, "control.schema.json")

	roundTrip(t, sub, viewproto.SubscribeMsg{Type: viewproto.TypeSubscribe, ProtocolVersion: viewproto.Version})
	idx := 12
	roundTrip(t, ctl, viewproto.ControlMsg{Type: viewproto.TypeSeek, ProtocolVersion: viewproto.Version, Index: &idx})
	roundTrip(t, ctl, viewproto.ControlMsg{Type: viewproto.TypePause, ProtocolVersion: viewproto.Version})

	var seekNoIndex any
	_ = json.Unmarshal([]byte(`{"type":"SEEK","protocol_version":"0.1"}`), &seekNoIndex)
	if err := ctl.Validate(seekNoIndex); err == nil {
		t.Fatalf("SEEK without index should not validate")
	}
}

func TestSchemas_ServerMessages(t *testing.T) {
	g, err := geometry.NewGlorb(2)
	if err != nil {
		t.Fatalf("NewGlorb: %v", err)
	}
	pal := palette.Default()

	boot := viewproto.BootstrapResponse{
		ProtocolVersion: viewproto.Version,
		RunID:           "run_test",
		Seed:            1337,
		Playback:        viewproto.PlaybackInfo{MinIndex: 0, MaxIndex: 500, Loop: true, IntervalMs: 300},
		Geometry:        viewproto.NewGeometry(g),
		Palette:         viewproto.PaletteInfo{Background: pal.Background.Hex(), Food: pal.Food.Hex()},
	}
	if boot.Geometry.NumFaces != 80 || len(boot.Geometry.Spherical) != 80 {
		t.Fatalf("geometry: faces=%d spherical=%d", boot.Geometry.NumFaces, len(boot.Geometry.Spherical))
	}
	roundTrip(t, compile(t, "bootstrap.schema.json"), boot)

	s := sim.NewSimulator(g, sim.DefaultParams(), sim.NewStream(7), 0)
	frameSchema := compile(t, "frame.schema.json")
	for i := 0; i < 20; i++ {
		f, err := s.Simulate(i)
		if err != nil {
			t.Fatalf("Simulate(%d): %v", i, err)
		}
		msg := viewproto.NewFrame(f, g.NumFaces(), pal, i%2 == 0, false)
		if i%2 == 0 && len(msg.Colors) != g.NumFaces() {
			t.Fatalf("colors: got %d want %d", len(msg.Colors), g.NumFaces())
		}
		roundTrip(t, frameSchema, msg)
	}

	roundTrip(t, compile(t, "status.schema.json"), viewproto.StatusMsg{
		Type:            viewproto.TypeStatus,
		ProtocolVersion: viewproto.Version,
		Paused:          true,
		Cursor:          4,
		Highest:         9,
	})
}
