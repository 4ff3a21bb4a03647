package stats

import (
	"strings"
	"testing"
	"time"

	"autoveille/internal/types"
)

func listing(brand, model string, year, price, mileage int, gearbox string, update time.Time) types.Listing {
	return types.Listing{
		Brand:        brand,
		Model:        model,
		Year:         &year,
		CurrentPrice: &price,
		Mileage:      &mileage,
		Gearbox:      gearbox,
		UpdateDate:   update,
	}
}

func TestComputeAveragesPerGroup(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	statistics := Compute([]types.Listing{
		listing("Peugeot", "208", 2018, 10000, 40000, "Manuelle", now),
		listing("Peugeot", "208", 2018, 12000, 60000, "Manuelle", now),
		listing("Peugeot", "208", 2018, 20000, 10000, "Automatique", now),
	})

	if len(statistics) != 2 {
		t.Fatalf("groups = %d, want 2", len(statistics))
	}

	manual := statistics[GroupKey{Brand: "Peugeot", Model: "208", Year: 2018, Gearbox: "Manuelle"}]
	if manual.Price != 11000 {
		t.Errorf("manual group average price = %d, want 11000", manual.Price)
	}
	if manual.Mileage != 50000 {
		t.Errorf("manual group average mileage = %d, want 50000", manual.Mileage)
	}

	auto := statistics[GroupKey{Brand: "Peugeot", Model: "208", Year: 2018, Gearbox: "Automatique"}]
	if auto.Price != 20000 {
		t.Errorf("automatic group average price = %d, want 20000", auto.Price)
	}
}

func TestComputeRoundsAverages(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	statistics := Compute([]types.Listing{
		listing("Renault", "Clio", 2020, 10000, 0, "Manuelle", now),
		listing("Renault", "Clio", 2020, 10001, 0, "Manuelle", now),
	})

	got := statistics[GroupKey{Brand: "Renault", Model: "Clio", Year: 2020, Gearbox: "Manuelle"}]
	if got.Price != 10001 {
		t.Errorf("rounded average price = %d, want 10001 (20001/2 rounds up)", got.Price)
	}
}

func TestComputeIgnoresStaleRows(t *testing.T) {
	latest := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	stale := latest.Add(-24 * time.Hour)

	statistics := Compute([]types.Listing{
		listing("Peugeot", "208", 2018, 10000, 40000, "Manuelle", latest),
		listing("Peugeot", "208", 2018, 99999, 99999, "Manuelle", stale),
	})

	got := statistics[GroupKey{Brand: "Peugeot", Model: "208", Year: 2018, Gearbox: "Manuelle"}]
	if got.Price != 10000 {
		t.Errorf("average price = %d, want 10000 (stale row must not count)", got.Price)
	}
}

func TestComputeSkipsMissingValues(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	year := 2018
	price := 15000

	statistics := Compute([]types.Listing{
		listing("Peugeot", "208", 2018, 10000, 40000, "Manuelle", now),
		{Brand: "Peugeot", Model: "208", Year: &year, CurrentPrice: &price, Gearbox: "Manuelle", UpdateDate: now},
	})

	got := statistics[GroupKey{Brand: "Peugeot", Model: "208", Year: 2018, Gearbox: "Manuelle"}]
	if got.Price != 12500 {
		t.Errorf("average price = %d, want 12500 over both rows", got.Price)
	}
	if got.Mileage != 40000 {
		t.Errorf("average mileage = %d, want 40000 (nil mileage row excluded)", got.Mileage)
	}
}

func TestComputeEmptyInput(t *testing.T) {
	if statistics := Compute(nil); len(statistics) != 0 {
		t.Errorf("groups from empty input = %d, want 0", len(statistics))
	}
}

func TestExportWritesSortedCSV(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	statistics := Compute([]types.Listing{
		listing("Renault", "Clio", 2020, 14000, 35000, "Manuelle", now),
		listing("Peugeot", "208", 2019, 16000, 20000, "Automatique", now),
		listing("Peugeot", "208", 2018, 11000, 50000, "Manuelle", now),
	})

	var buf strings.Builder
	if err := Export(statistics, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	want := "brand,model,year,gearbox,average_price,average_mileage\n" +
		"Peugeot,208,2018,Manuelle,11000,50000\n" +
		"Peugeot,208,2019,Automatique,16000,20000\n" +
		"Renault,Clio,2020,Manuelle,14000,35000\n"
	if buf.String() != want {
		t.Errorf("csv output:\n%s\nwant:\n%s", buf.String(), want)
	}
}
