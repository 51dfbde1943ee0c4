package geometry

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestCropRatio(t *testing.T) {
	tests := []struct {
		name     string
		srcW     float64
		srcH     float64
		tgtW     float64
		tgtH     float64
		wantUV0  Vec2
		wantUV1  Vec2
		lrOnly   bool
		tbOnly   bool
		identity bool
	}{
		{
			name: "wider source crops left and right",
			srcW: 400, srcH: 200, tgtW: 200, tgtH: 200,
			// s=2, t=1: half = 1/2/2 = 0.25
			wantUV0: Vec2{0.25, 0}, wantUV1: Vec2{0.75, 1},
			lrOnly: true,
		},
		{
			name: "taller source crops top and bottom",
			srcW: 100, srcH: 200, tgtW: 200, tgtH: 200,
			// s=0.5, t=1: half = 0.5*0.5/2 = 0.125
			wantUV0: Vec2{0, 0.125}, wantUV1: Vec2{1, 0.875},
			tbOnly: true,
		},
		{
			name: "equal aspect is identity",
			srcW: 300, srcH: 150, tgtW: 200, tgtH: 100,
			wantUV0: Vec2{0, 0}, wantUV1: Vec2{1, 1},
			identity: true,
		},
		{
			name: "wide target with taller source",
			srcW: 160, srcH: 100, tgtW: 200, tgtH: 100,
			// s=1.6, t=2: half = 0.4*1.6/2 = 0.32
			wantUV0: Vec2{0, 0.32}, wantUV1: Vec2{1, 0.68},
			tbOnly: true,
		},
		{
			name: "degenerate source size",
			srcW: 0, srcH: 100, tgtW: 200, tgtH: 200,
			wantUV0: Vec2{0, 0}, wantUV1: Vec2{1, 1},
			identity: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uv0, uv1 := CropRatio(tt.srcW, tt.srcH, tt.tgtW, tt.tgtH)
			if !near(uv0.X, tt.wantUV0.X) || !near(uv0.Y, tt.wantUV0.Y) ||
				!near(uv1.X, tt.wantUV1.X) || !near(uv1.Y, tt.wantUV1.Y) {
				t.Fatalf("CropRatio = %v,%v want %v,%v", uv0, uv1, tt.wantUV0, tt.wantUV1)
			}
			if tt.lrOnly && (uv0.Y != 0 || uv1.Y != 1) {
				t.Error("wider source must not crop vertically")
			}
			if tt.tbOnly && (uv0.X != 0 || uv1.X != 1) {
				t.Error("taller source must not crop horizontally")
			}
			if tt.identity && (uv0 != (Vec2{0, 0}) || uv1 != (Vec2{1, 1})) {
				t.Errorf("expected identity window, got %v %v", uv0, uv1)
			}
			// Windows stay centered.
			if !near(uv0.X, 1-uv1.X) || !near(uv0.Y, 1-uv1.Y) {
				t.Errorf("window not centered: %v %v", uv0, uv1)
			}
		})
	}
}

func TestScaleToFit(t *testing.T) {
	tests := []struct {
		name   string
		srcW   float64
		srcH   float64
		target Vec2
		cw, ch bool
		want   Vec2
	}{
		{"both axes uses smaller ratio", 400, 200, Vec2{200, 200}, true, true, Vec2{200, 100}},
		{"both axes upscales", 50, 100, Vec2{200, 200}, true, true, Vec2{100, 200}},
		{"width only", 400, 200, Vec2{100, 1000}, true, false, Vec2{100, 50}},
		{"height only", 400, 200, Vec2{1000, 100}, false, true, Vec2{200, 100}},
		{"neither returns source", 400, 200, Vec2{10, 10}, false, false, Vec2{400, 200}},
		{"zero source untouched", 0, 200, Vec2{10, 10}, true, true, Vec2{0, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleToFit(tt.srcW, tt.srcH, tt.target, tt.cw, tt.ch)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
				t.Errorf("ScaleToFit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScaleDownIfLarger(t *testing.T) {
	bound := Vec2{800, 600}

	fits := []Vec2{{800, 600}, {100, 100}, {800, 1}, {1, 600}}
	for _, src := range fits {
		if got := ScaleDownIfLarger(src.X, src.Y, bound); got != src {
			t.Errorf("ScaleDownIfLarger(%v) = %v, want unchanged", src, got)
		}
	}

	got := ScaleDownIfLarger(1600, 600, bound)
	if !near(got.X, 800) || !near(got.Y, 300) {
		t.Errorf("wide image: got %v", got)
	}

	got = ScaleDownIfLarger(400, 1200, bound)
	if !near(got.X, 200) || !near(got.Y, 600) {
		t.Errorf("tall image: got %v", got)
	}
}

func TestResizeKeepingAspect(t *testing.T) {
	got := ResizeKeepingAspect(Vec2{200, 300}, 100)
	if !near(got.X, 100) || !near(got.Y, 150) {
		t.Errorf("got %v, want {100 150}", got)
	}
	if got := ResizeKeepingAspect(Vec2{200, 300}, 0); got != (Vec2{200, 300}) {
		t.Errorf("zero width should be a no-op, got %v", got)
	}
}

func TestPixelRect(t *testing.T) {
	x0, y0, x1, y1 := PixelRect(Vec2{0.25, 0}, Vec2{0.75, 1}, 400, 200)
	if x0 != 100 || y0 != 0 || x1 != 300 || y1 != 200 {
		t.Errorf("PixelRect = %d,%d,%d,%d", x0, y0, x1, y1)
	}
}

func TestVec2Scale(t *testing.T) {
	if got := (Vec2{10, 20}).Scale(0.75); got != (Vec2{7.5, 15}) {
		t.Errorf("Scale = %v", got)
	}
}
