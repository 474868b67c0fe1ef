package services

import (
	"context"
	"errors"
	"math/rand"
	"order-fulfillment-service/internal/domain"
	"slices"
	"testing"
)

// Restaurant 1 stocks both products, 2 has product 2 switched off, 3 stocks both.
func scenarioRecords() []domain.MenuAvailabilityRecord {
	return []domain.MenuAvailabilityRecord{
		{RestaurantID: 1, ProductID: 1, Available: true},
		{RestaurantID: 1, ProductID: 2, Available: true},
		{RestaurantID: 2, ProductID: 1, Available: true},
		{RestaurantID: 2, ProductID: 2, Available: false},
		{RestaurantID: 3, ProductID: 1, Available: true},
		{RestaurantID: 3, ProductID: 2, Available: true},
	}
}

func TestResolveCandidates(t *testing.T) {
	index := NewSnapshotAvailabilityIndex(scenarioRecords())

	tests := []struct {
		name  string
		items []domain.LineItem
		want  []int
	}{
		{"both products", []domain.LineItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 3}}, []int{1, 3}},
		{"single product", []domain.LineItem{{ProductID: 1, Quantity: 1}}, []int{1, 2, 3}},
		{"duplicates and quantities ignored", []domain.LineItem{{ProductID: 2, Quantity: 10}, {ProductID: 2, Quantity: 0}}, []int{1, 3}},
		{"product nobody sells", []domain.LineItem{{ProductID: 1}, {ProductID: 42}}, []int{}},
	}

	for _, tt := range tests {
		got, err := ResolveCandidates(context.Background(), &domain.Order{OrderID: 7, Items: tt.items}, index)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Fatalf("%s: candidates = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestResolveCandidatesRejectsEmptyOrder(t *testing.T) {
	index := NewSnapshotAvailabilityIndex(scenarioRecords())

	_, err := ResolveCandidates(context.Background(), &domain.Order{OrderID: 7}, index)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}

	if _, err := ResolveCandidates(context.Background(), nil, index); err == nil {
		t.Fatal("expected error for nil order")
	}
}

func TestSnapshotAvailabilityIndexLaterRecordWins(t *testing.T) {
	index := NewSnapshotAvailabilityIndex([]domain.MenuAvailabilityRecord{
		{RestaurantID: 1, ProductID: 1, Available: true},
		{RestaurantID: 2, ProductID: 1, Available: false},
		{RestaurantID: 1, ProductID: 1, Available: false},
		{RestaurantID: 2, ProductID: 1, Available: true},
	})

	got, err := index.RestaurantsStocking(context.Background(), []int{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got, []int{2}) {
		t.Fatalf("candidates = %v, want [2]", got)
	}
}

func TestSnapshotAvailabilityIndexEmptyProductList(t *testing.T) {
	index := NewSnapshotAvailabilityIndex(nil)
	if _, err := index.RestaurantsStocking(context.Background(), nil); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

// Compare the index against a direct scan over random catalogs.
func TestSnapshotAvailabilityIndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(20261017))

	for round := 0; round < 200; round++ {
		restaurants := 1 + rng.Intn(8)
		products := 1 + rng.Intn(6)

		stock := make(map[[2]int]bool)
		var records []domain.MenuAvailabilityRecord
		for r := 1; r <= restaurants; r++ {
			for p := 1; p <= products; p++ {
				// Leave some pairs without a record at all.
				if rng.Intn(4) == 0 {
					continue
				}
				available := rng.Intn(3) != 0
				stock[[2]int{r, p}] = available
				records = append(records, domain.MenuAvailabilityRecord{RestaurantID: r, ProductID: p, Available: available})
			}
		}
		index := NewSnapshotAvailabilityIndex(records)

		want := make([]int, 0)
		query := make([]int, 0, 1+rng.Intn(products))
		for len(query) == 0 {
			for p := 1; p <= products; p++ {
				if rng.Intn(2) == 0 {
					query = append(query, p)
				}
			}
		}
		for r := 1; r <= restaurants; r++ {
			all := true
			for _, p := range query {
				if !stock[[2]int{r, p}] {
					all = false
					break
				}
			}
			if all {
				want = append(want, r)
			}
		}

		got, err := index.RestaurantsStocking(context.Background(), query)
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", round, err)
		}
		if !slices.Equal(got, want) {
			t.Fatalf("round %d: products %v: candidates = %v, want %v", round, query, got, want)
		}
	}
}
