// Command seed initializes a database with sample suppliers and compliance
// records for local development.
package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
	"github.com/couchcryptid/supplier-compliance-service/internal/store"
)

var sampleSuppliers = []domain.Supplier{
	{
		Name:    "TechCorp Solutions",
		Country: "United States",
		ContractTerms: map[string]any{
			"delivery_time":    "5 days",
			"quality_standard": "99.5%",
			"discount_rate":    "2%",
			"payment_terms":    "Net 30",
			"coordinates":      map[string]any{"lat": 40.7128, "lon": -74.0060},
		},
		ComplianceScore: 85,
		LastAudit:       datePtr(2024, 11, 15),
	},
	{
		Name:    "Global Manufacturing Ltd",
		Country: "Germany",
		ContractTerms: map[string]any{
			"delivery_time":    "7 days",
			"quality_standard": "98%",
			"discount_rate":    "3%",
			"payment_terms":    "Net 45",
			"coordinates":      map[string]any{"lat": 52.5200, "lon": 13.4050},
		},
		ComplianceScore: 72,
		LastAudit:       datePtr(2024, 10, 20),
	},
	{
		Name:    "Asia Pacific Suppliers",
		Country: "Singapore",
		ContractTerms: map[string]any{
			"delivery_time":    "10 days",
			"quality_standard": "97%",
			"discount_rate":    "4%",
			"payment_terms":    "Net 60",
			"coordinates":      map[string]any{"lat": 1.3521, "lon": 103.8198},
		},
		ComplianceScore: 55,
		LastAudit:       datePtr(2024, 9, 5),
	},
	{
		Name:    "European Electronics",
		Country: "Netherlands",
		ContractTerms: map[string]any{
			"delivery_time":    "3 days",
			"quality_standard": "99.8%",
			"discount_rate":    "1.5%",
			"payment_terms":    "Net 15",
			"coordinates":      map[string]any{"lat": 52.3676, "lon": 4.9041},
		},
		ComplianceScore: 92,
		LastAudit:       datePtr(2024, 12, 1),
	},
	{
		Name:    "South American Textiles",
		Country: "Brazil",
		ContractTerms: map[string]any{
			"delivery_time":    "14 days",
			"quality_standard": "95%",
			"discount_rate":    "5%",
			"payment_terms":    "Net 90",
			"coordinates":      map[string]any{"lat": -23.5505, "lon": -46.6333},
		},
		ComplianceScore: 45,
		LastAudit:       datePtr(2024, 8, 12),
	},
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// sampleRecords generates ten plausible compliance records for one supplier.
func sampleRecords(rng *rand.Rand, supplierID string) []domain.ComplianceRecord {
	metrics := []string{"delivery_time", "quality_score", "on_time_delivery", "defect_rate"}
	now := time.Now().UTC()

	records := make([]domain.ComplianceRecord, 0, 10)
	for i := 0; i < 10; i++ {
		metric := metrics[rng.Intn(len(metrics))]
		recorded := now.AddDate(0, 0, -(1 + rng.Intn(90)))

		var result, expected float64
		var verdict domain.Verdict
		switch metric {
		case "delivery_time":
			result = 3 + rng.Float64()*12
			expected = 5 + rng.Float64()*5
			verdict = verdictLowerIsBetter(result, expected)
		case "quality_score":
			result = 85 + rng.Float64()*15
			expected = 95 + rng.Float64()*4
			verdict = verdictHigherIsBetter(result, expected)
		case "on_time_delivery":
			result = 70 + rng.Float64()*30
			expected = 95
			verdict = verdictHigherIsBetter(result, expected)
		default: // defect_rate
			result = rng.Float64() * 10
			expected = 1 + rng.Float64()*4
			verdict = verdictLowerIsBetter(result, expected)
		}

		e := expected
		records = append(records, domain.ComplianceRecord{
			ID:            uuid.NewString(),
			SupplierID:    supplierID,
			Metric:        metric,
			DateRecorded:  recorded.Truncate(24 * time.Hour),
			Result:        result,
			ExpectedValue: &e,
			Verdict:       verdict,
			CreatedAt:     now,
		})
	}
	return records
}

func verdictLowerIsBetter(result, expected float64) domain.Verdict {
	if result <= expected {
		return domain.VerdictCompliant
	}
	return domain.VerdictNonCompliant
}

func verdictHigherIsBetter(result, expected float64) domain.Verdict {
	if result >= expected {
		return domain.VerdictCompliant
	}
	return domain.VerdictNonCompliant
}

func main() {
	dsn := flag.String("dsn", "supplier_compliance.db", "sqlite database path")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	st, err := store.Open(*dsn)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	existing, err := st.ListSuppliers(ctx, 0, -1)
	if err != nil {
		logger.Error("failed to list suppliers", "error", err)
		os.Exit(1)
	}
	if len(existing) > 0 {
		logger.Info("database already seeded, skipping", "suppliers", len(existing))
		return
	}

	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	for _, supplier := range sampleSuppliers {
		supplier.ID = uuid.NewString()
		supplier.CreatedAt = now
		if err := st.CreateSupplier(ctx, supplier); err != nil {
			logger.Error("failed to create supplier", "name", supplier.Name, "error", err)
			os.Exit(1)
		}
		logger.Info("created supplier", "name", supplier.Name)

		records := sampleRecords(rng, supplier.ID)
		for _, record := range records {
			if err := st.CreateRecord(ctx, record); err != nil {
				logger.Error("failed to create record", "supplier", supplier.Name, "error", err)
				os.Exit(1)
			}
		}
		logger.Info("created compliance records", "supplier", supplier.Name, "count", len(records))
	}

	logger.Info("seed complete", "suppliers", len(sampleSuppliers))
}
