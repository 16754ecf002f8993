package search_test

import (
	"testing"

	"proxi/internal/datagen"
	"proxi/internal/geom"
	"proxi/internal/search"
	"proxi/internal/search/brute"
	"proxi/internal/search/kd"
)

func buildBoth(t *testing.T, points [][]float64, dims int) (search.Searcher, search.Searcher) {
	t.Helper()
	vecs := make([]geom.Point, len(points))
	tags := make([]interface{}, len(points))
	for i := range points {
		vecs[i] = geom.NewPoint(points[i])
		tags[i] = i
	}

	kdAlg := kd.NewKDAlg(dims, geom.SquaredEuclideanDistance)
	bruteAlg := brute.NewBruteAlg(geom.SquaredEuclideanDistance)
	if err := kdAlg.Build(vecs, tags); err != nil {
		t.Fatalf("calling the Build method on kd, err got: %v, expected: %v", err, nil)
	}
	if err := bruteAlg.Build(vecs, tags); err != nil {
		t.Fatalf("calling the Build method on brute, err got: %v, expected: %v", err, nil)
	}
	return kdAlg, bruteAlg
}

func distanceOf(t *testing.T, target geom.Point, m search.Match) float64 {
	t.Helper()
	d, err := geom.SquaredEuclideanDistance(target.Points(), m.Point.Points())
	if err != nil {
		t.Fatalf("compute distance err: %v", err)
	}
	return d
}

func TestKDAgreesWithBruteKNN(t *testing.T) {
	tests := []struct {
		name string
		n    int
		dims int
		k    int
	}{
		{name: "positive_k1", n: 120, dims: 2, k: 1},
		{name: "positive_k7", n: 250, dims: 4, k: 7},
	}
	for i, test := range tests {
		test := test
		seed := uint32(300 + i)
		t.Run(test.name, func(t *testing.T) {
			gen := datagen.New(seed)
			kdAlg, bruteAlg := buildBoth(t, gen.Uniform(test.n, test.dims, -30, 30), test.dims)

			for _, vec := range gen.Uniform(20, test.dims, -35, 35) {
				target := geom.NewPoint(vec)
				kdMatches, kdFound, err := kdAlg.NearestNeighbors(target, test.k)
				if err != nil {
					t.Fatalf("calling the NearestNeighbors method on kd, err got: %v, expected: %v", err, nil)
				}
				bruteMatches, bruteFound, err := bruteAlg.NearestNeighbors(target, test.k)
				if err != nil {
					t.Fatalf("calling the NearestNeighbors method on brute, err got: %v, expected: %v", err, nil)
				}
				if kdFound != bruteFound || len(kdMatches) != len(bruteMatches) {
					t.Fatalf(
						"the engines disagree, kd got: %v/%v, brute: %v/%v",
						len(kdMatches), kdFound, len(bruteMatches), bruteFound,
					)
				}
				for j := range kdMatches {
					kdDist := distanceOf(t, target, kdMatches[j])
					bruteDist := distanceOf(t, target, bruteMatches[j])
					if kdDist != bruteDist {
						t.Errorf("the neighbor distance at %d, kd got: %v, brute: %v", j, kdDist, bruteDist)
					}
				}
			}
		})
	}
}

func TestKDAgreesWithBruteRadial(t *testing.T) {
	gen := datagen.New(500)
	dims := 3
	kdAlg, bruteAlg := buildBoth(t, gen.Clustered(180, [][]float64{{0, 0, 0}, {40, 40, 40}}, 15), dims)

	for _, radius := range []float64{5, 20, 80} {
		for _, vec := range gen.Uniform(10, dims, -10, 50) {
			center := geom.NewPoint(vec)
			kdMatches, _, err := kdAlg.RadialSearch(center, radius, 0)
			if err != nil {
				t.Fatalf("calling the RadialSearch method on kd, err got: %v, expected: %v", err, nil)
			}
			bruteMatches, _, err := bruteAlg.RadialSearch(center, radius, 0)
			if err != nil {
				t.Fatalf("calling the RadialSearch method on brute, err got: %v, expected: %v", err, nil)
			}
			if len(kdMatches) != len(bruteMatches) {
				t.Fatalf(
					"the radial result length for radius %v, kd got: %v, brute: %v",
					radius, len(kdMatches), len(bruteMatches),
				)
			}
			for j := range kdMatches {
				kdDist := distanceOf(t, center, kdMatches[j])
				bruteDist := distanceOf(t, center, bruteMatches[j])
				if kdDist != bruteDist {
					t.Errorf("the radial distance at %d, kd got: %v, brute: %v", j, kdDist, bruteDist)
				}
			}
		}
	}
}

func TestSearcherTagsRoundTrip(t *testing.T) {
	points := []geom.Point{{1, 1}, {5, 5}, {9, 9}}
	tags := []interface{}{"near", "mid", "far"}

	for _, alg := range []search.Searcher{
		kd.NewKDAlg(2, geom.SquaredEuclideanDistance),
		brute.NewBruteAlg(geom.SquaredEuclideanDistance),
	} {
		if err := alg.Build(points, tags); err != nil {
			t.Fatalf("calling the Build method, err got: %v, expected: %v", err, nil)
		}
		matches, found, err := alg.NearestNeighbors(geom.Point{0, 0}, 1)
		if err != nil || !found {
			t.Fatalf("calling the NearestNeighbors method, err got: %v found: %v", err, found)
		}
		if matches[0].Tag != "near" {
			t.Errorf("the nearest tag got: %v, expected: %v", matches[0].Tag, "near")
		}
	}
}
