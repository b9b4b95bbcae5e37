package game

import "testing"

// TestFogCircleVisibility 圆形可见范围
func TestFogCircleVisibility(t *testing.T) {
	fog := &FogOfWar{CenterX: 100, CenterY: 100, Radius: 50}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"center", 100, 100, true},
		{"inside", 130, 100, true},
		{"on boundary", 150, 100, true},
		{"outside", 151, 100, false},
		{"diagonal outside", 140, 140, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fog.Visible(tt.x, tt.y); got != tt.want {
				t.Errorf("Visible(%v, %v): got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

// TestFogCorridorVisibility 走廊矩形扩展可见范围
func TestFogCorridorVisibility(t *testing.T) {
	fog := &FogOfWar{
		CenterX: 0, CenterY: 0, Radius: 10,
		Corridors: []CorridorRect{
			{MinX: 100, MinY: -20, MaxX: 300, MaxY: 20},
		},
	}

	if !fog.Visible(200, 0) {
		t.Error("point inside a corridor must be visible")
	}
	if !fog.Visible(100, -20) {
		t.Error("corridor boundary must be visible")
	}
	if fog.Visible(200, 30) {
		t.Error("point outside both circle and corridors must be invisible")
	}
}
