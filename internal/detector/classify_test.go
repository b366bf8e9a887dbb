package detector

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/ayusman/camstick/internal/vision"
)

func TestClassifyVotes(t *testing.T) {
	tests := []struct {
		name  string
		votes vision.Votes
		want  Direction
	}{
		{name: "no votes", votes: vision.Votes{}, want: Center},
		{name: "left below floor", votes: vision.Votes{Left: 250}, want: Center},
		{name: "right below floor", votes: vision.Votes{Right: 299}, want: Center},
		{name: "both below floor", votes: vision.Votes{Left: 299, Right: 10}, want: Center},
		{name: "left at floor", votes: vision.Votes{Left: 300}, want: Left},
		{name: "right dominates", votes: vision.Votes{Left: 400, Right: 900}, want: Right},
		{name: "left dominates", votes: vision.Votes{Left: 5000, Right: 4999}, want: Left},
		{name: "tie above floor", votes: vision.Votes{Left: 700, Right: 700}, want: Center},
		{name: "small side clamped", votes: vision.Votes{Left: 299, Right: 301}, want: Right},
		{name: "all pixels right", votes: vision.Votes{Right: 640 * 480}, want: Right},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyVotes(tt.votes, VoteFloor); got != tt.want {
				t.Errorf("ClassifyVotes(%+v) = %v, want %v", tt.votes, got, tt.want)
			}
		})
	}
}

func TestClassifyVotes_UniformFlowField(t *testing.T) {
	f := vision.NewFlowField(40, 30)
	for i := range f.DX {
		f.DX[i] = 5.0
	}

	votes := vision.CountVotes(f, vision.FlowThreshold)
	if votes.Right != f.Len() || votes.Left != 0 {
		t.Fatalf("votes = %+v, want all %d right", votes, f.Len())
	}
	if got := ClassifyVotes(votes, VoteFloor); got != Right {
		t.Errorf("ClassifyVotes() = %v, want RIGHT", got)
	}
}

func TestDividingLine(t *testing.T) {
	tests := []struct {
		height int
		want   float64
	}{
		{height: 480, want: 215},
		{height: 720, want: 335},
		{height: 481, want: 215.5},
	}

	for _, tt := range tests {
		if got := DividingLine(tt.height, CenterOffset); got != tt.want {
			t.Errorf("DividingLine(%d) = %v, want %v", tt.height, got, tt.want)
		}
	}
}

func TestClassifyCentroid(t *testing.T) {
	found := func(x int) vision.Measurement {
		return vision.Measurement{Found: true, Centroid: image.Pt(x, 100)}
	}

	tests := []struct {
		name   string
		m      vision.Measurement
		height int
		want   Direction
	}{
		{name: "no object", m: vision.NoObject, height: 480, want: Center},
		{name: "left of line", m: found(214), height: 480, want: Left},
		{name: "on the line", m: found(215), height: 480, want: Center},
		{name: "right of line", m: found(216), height: 480, want: Right},
		// 320 is the middle of a 640 wide frame but well right of the line.
		{name: "frame middle", m: found(320), height: 480, want: Right},
		{name: "odd height never centers", m: found(215), height: 481, want: Left},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyCentroid(tt.m, tt.height, CenterOffset); got != tt.want {
				t.Errorf("ClassifyCentroid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirection_Text(t *testing.T) {
	for _, d := range []Direction{Left, Right, Center} {
		data, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", d, err)
		}

		var back Direction
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if back != d {
			t.Errorf("round trip %v -> %s -> %v", d, data, back)
		}
	}

	if Direction(99).String() != "CENTER" {
		t.Error("unknown values should print as CENTER")
	}

	if _, err := ParseDirection("up"); err == nil {
		t.Error("ParseDirection(up) should fail")
	}
	if d, _ := ParseDirection(" left "); d != Left {
		t.Errorf("ParseDirection(left) = %v, want LEFT", d)
	}
}
