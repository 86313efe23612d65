package auction

import (
	"math/big"
	"testing"
)

func TestPriceVectors(t *testing.T) {
	cases := []struct {
		name            string
		ceiling, floor  int64
		start, end, now uint64
		want            int64
	}{
		{"midpoint small ramp", 20, 10, 0, 10, 5, 15},
		{"quarter", 40, 30, 100, 200, 125, 37},
		{"half", 40, 30, 100, 200, 150, 35},
		{"at end", 40, 30, 100, 200, 200, 30},
		{"wide quarter", 800, 600, 100, 200, 125, 750},
		{"wide half", 800, 600, 100, 200, 150, 700},
		{"uneven quarter", 1111111, 1, 100, 200, 125, 833333},
		{"uneven half", 1111111, 1, 100, 200, 150, 555556},
		{"uneven end", 1111111, 1, 100, 200, 200, 1},
		{"past end", 20, 10, 0, 10, 15, 10},
		{"before start", 20, 10, 5, 15, 2, 20},
		{"at start", 1111111, 1, 100, 200, 100, 1111111},
		{"no ramp past end", 20, 20, 0, 10, 300, 20},
		{"no ramp at start", 20, 20, 0, 10, 0, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CurrentPrice(big.NewInt(tc.ceiling), big.NewInt(tc.floor), tc.start, tc.end, tc.now)
			if got.Cmp(big.NewInt(tc.want)) != 0 {
				t.Fatalf("price(%d) = %s, want %d", tc.now, got, tc.want)
			}
		})
	}
}

func TestPriceWeiScale(t *testing.T) {
	ether := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	ceiling := new(big.Int).Mul(big.NewInt(600), ether)
	floor := new(big.Int).Mul(big.NewInt(400), ether)

	quarter := CurrentPrice(ceiling, floor, 100, 200, 125)
	want := new(big.Int).Mul(big.NewInt(550), ether)
	if quarter.Cmp(want) != 0 {
		t.Fatalf("price(125) = %s, want %s", quarter, want)
	}
	half := CurrentPrice(ceiling, floor, 100, 200, 150)
	want = new(big.Int).Mul(big.NewInt(500), ether)
	if half.Cmp(want) != 0 {
		t.Fatalf("price(150) = %s, want %s", half, want)
	}
}

func TestPriceNonIncreasing(t *testing.T) {
	ceiling := big.NewInt(1111111)
	floor := big.NewInt(1)
	prev := CurrentPrice(ceiling, floor, 100, 200, 100)
	for now := uint64(101); now <= 205; now++ {
		price := CurrentPrice(ceiling, floor, 100, 200, now)
		if price.Cmp(prev) > 0 {
			t.Fatalf("price increased at %d: %s > %s", now, price, prev)
		}
		prev = price
	}
	if prev.Cmp(floor) != 0 {
		t.Fatalf("final price %s, want floor %s", prev, floor)
	}
}

func TestAbsoluteDecayConsistency(t *testing.T) {
	// The precomputed rate must produce the same schedule as the one-shot
	// helper for every interior point.
	ceiling := big.NewInt(987654)
	floor := big.NewInt(321)
	decay := absoluteDecay(ceiling, floor, 10, 97)
	for now := uint64(10); now <= 100; now += 3 {
		fromRate := priceAt(decay, ceiling, floor, 10, 97, now)
		oneShot := CurrentPrice(ceiling, floor, 10, 97, now)
		if fromRate.Cmp(oneShot) != 0 {
			t.Fatalf("drift at %d: %s vs %s", now, fromRate, oneShot)
		}
	}
}
