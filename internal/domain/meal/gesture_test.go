package meal

import "testing"

func TestDecideDrag(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   DragDecision
	}{
		{"no movement", 0, 0, DragRestore},
		{"short horizontal", 99, 0, DragRestore},
		{"exactly at threshold", 100, 0, DragRestore},
		{"just past threshold", 100.1, 0, DragRemove},
		{"diagonal under", 60, 60, DragRestore},
		{"diagonal over", 80, 80, DragRemove},
		{"vertical only", 0, 150, DragRemove},
		{"negative displacement", -90, -90, DragRemove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecideDrag(tt.dx, tt.dy); got != tt.want {
				t.Errorf("DecideDrag(%v, %v) = %v, want %v", tt.dx, tt.dy, got, tt.want)
			}
		})
	}
}
