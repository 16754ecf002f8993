package kdtree

import "testing"

func TestBBoxClosest(t *testing.T) {
	tests := []struct {
		name     string
		box      *BBox
		target   []float64
		expected []float64
	}{
		{
			name:     "positive_inside",
			box:      &BBox{Min: []float64{0, 0}, Max: []float64{10, 10}},
			target:   []float64{3, 7},
			expected: []float64{3, 7},
		},
		{
			name:     "positive_clamped_below",
			box:      &BBox{Min: []float64{0, 0}, Max: []float64{10, 10}},
			target:   []float64{-5, 4},
			expected: []float64{0, 4},
		},
		{
			name:     "positive_clamped_above",
			box:      &BBox{Min: []float64{0, 0}, Max: []float64{10, 10}},
			target:   []float64{3, 22},
			expected: []float64{3, 10},
		},
		{
			name:     "positive_corner",
			box:      &BBox{Min: []float64{-1, -1}, Max: []float64{1, 1}},
			target:   []float64{5, -9},
			expected: []float64{1, -1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.box.Closest(test.target)
			for i := range test.expected {
				if got[i] != test.expected[i] {
					t.Errorf("calling the Closest method, the coordinate %d got: %v, expected: %v", i, got[i], test.expected[i])
				}
			}
		})
	}
}

func TestBBoxClone(t *testing.T) {
	box := NewBBox(3, -100, 100)
	clone := box.Clone()
	clone.Min[1] = 5
	clone.Max[2] = 7
	if box.Min[1] != -100 || box.Max[2] != 100 {
		t.Errorf("mutating the clone changed the source box: %v / %v", box.Min, box.Max)
	}
	for i := 0; i < 3; i++ {
		if box.Min[i] != -100 || box.Max[i] != 100 {
			t.Errorf("calling the NewBBox function, the bounds at %d got: %v / %v, expected: %v / %v",
				i, box.Min[i], box.Max[i], -100.0, 100.0)
		}
	}
}
