// Package mockdata implements the data reader port with synthesized preview
// records. It backs dev mode, where no real data plane is attached.
package mockdata

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/datamesh-io/marketplace/internal/port/datareader"
)

// Reader synthesizes preview rows shaped by the product name.
type Reader struct {
	now func() time.Time
}

// NewReader creates a mock data reader.
func NewReader() *Reader {
	return &Reader{now: time.Now}
}

// Read returns ten sample records whose shape matches the product's domain:
// risk products get risk scores, claims products get claim amounts, policy
// products get policy rows. Unknown products get a small generic sample.
func (r *Reader) Read(_ context.Context, productName string) ([]datareader.Record, error) {
	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "risk"):
		return r.riskRecords(), nil
	case strings.Contains(name, "claim"):
		return r.claimRecords(), nil
	case strings.Contains(name, "policy"):
		return r.policyRecords(), nil
	default:
		return r.genericRecords(productName), nil
	}
}

var riskStatuses = []string{"Low", "Medium", "High", "Critical"}

func (r *Reader) riskRecords() []datareader.Record {
	records := make([]datareader.Record, 0, 10)
	for i := 1; i <= 10; i++ {
		records = append(records, datareader.Record{
			"id":              fmt.Sprintf("R-%d", 1000+i),
			"customer_id":     fmt.Sprintf("CUST-%d", 500+rand.IntN(500)),
			"risk_score":      1 + rand.IntN(100),
			"assessment_date": r.now().AddDate(0, 0, -i).Format("2006-01-02"),
			"status":          riskStatuses[rand.IntN(len(riskStatuses))],
		})
	}
	return records
}

var claimStatuses = []string{"Filed", "Investigating", "Settled", "Rejected"}

func (r *Reader) claimRecords() []datareader.Record {
	records := make([]datareader.Record, 0, 10)
	for i := 1; i <= 10; i++ {
		records = append(records, datareader.Record{
			"claim_id":    fmt.Sprintf("CLM-%d", 202400+i),
			"policy_id":   fmt.Sprintf("POL-%d", 1000+rand.IntN(9000)),
			"amount_eur":  float64(50000+rand.IntN(4950000)) / 100,
			"filing_date": r.now().AddDate(0, 0, -7*i).Format("2006-01-02"),
			"status":      claimStatuses[rand.IntN(len(claimStatuses))],
		})
	}
	return records
}

var policyTypes = []string{"Auto", "Home", "Health", "Liability"}

func (r *Reader) policyRecords() []datareader.Record {
	records := make([]datareader.Record, 0, 10)
	for i := 1; i <= 10; i++ {
		records = append(records, datareader.Record{
			"policy_no":   fmt.Sprintf("POL-%d", 1000+i),
			"holder_name": fmt.Sprintf("Customer %d", i),
			"type":        policyTypes[rand.IntN(len(policyTypes))],
			"premium_eur": 200 + rand.IntN(1800),
			"start_date":  "2025-01-01",
			"active":      true,
		})
	}
	return records
}

func (r *Reader) genericRecords(productName string) []datareader.Record {
	records := make([]datareader.Record, 0, 5)
	for i := 1; i <= 5; i++ {
		records = append(records, datareader.Record{
			"record_id": i,
			"info":      fmt.Sprintf("Sample data for %s", productName),
			"timestamp": r.now().Format(time.RFC3339),
		})
	}
	return records
}
