// Package ipo assembles offering records from extracted fields, sorts them
// into the active and draft lists and merges lists from several sources.
package ipo

// Record is one public offering as published to the front end.
type Record struct {
	Code             string `json:"code"`
	Company          string `json:"company"`
	Dates            string `json:"dates"`
	Status           Status `json:"status"`
	Price            Price  `json:"price"`
	LotCount         string `json:"lotCount"`
	DistributionType string `json:"distributionType"`

	Logo                  string            `json:"logo,omitempty"`
	URL                   string            `json:"url,omitempty"`
	Slug                  string            `json:"slug,omitempty"`
	Market                string            `json:"market,omitempty"`
	Broker                string            `json:"broker,omitempty"`
	FloatingRate          string            `json:"floatingRate,omitempty"`
	Discount              string            `json:"discount,omitempty"`
	TotalSize             string            `json:"totalSize,omitempty"`
	ApplicationHours      string            `json:"applicationHours,omitempty"`
	PriceStability        string            `json:"priceStability,omitempty"`
	FundUsage             []string          `json:"fundUsage,omitempty"`
	Lockup                []string          `json:"lockup,omitempty"`
	AllocationGroups      []string          `json:"allocationGroups,omitempty"`
	EstimatedDistribution []string          `json:"estimatedDistribution,omitempty"`
	FinancialData         map[string]string `json:"financialData,omitempty"`
	StatusNote            string            `json:"statusNote,omitempty"`
	Source                string            `json:"source,omitempty"`
}

// Buckets is the partition of a record list.
type Buckets struct {
	Active []Record
	Draft  []Record
}

// Document is the published IPO file.
type Document struct {
	Active []Record `json:"active_ipos"`
	Draft  []Record `json:"draft_ipos"`
}

// NewDocument wraps buckets, turning nil lists into empty ones so that the
// file always carries both keys as arrays.
func NewDocument(b Buckets) Document {
	doc := Document{Active: b.Active, Draft: b.Draft}
	if doc.Active == nil {
		doc.Active = []Record{}
	}
	if doc.Draft == nil {
		doc.Draft = []Record{}
	}
	return doc
}

// Partition places every record in exactly one bucket, keeping order.
func Partition(records []Record) Buckets {
	var b Buckets
	for _, r := range records {
		if Classify(r.Status) == BucketActive {
			b.Active = append(b.Active, r)
		} else {
			b.Draft = append(b.Draft, r)
		}
	}
	return b
}

// Records flattens the document back into one list, active first.
func (d Document) Records() []Record {
	out := make([]Record, 0, len(d.Active)+len(d.Draft))
	out = append(out, d.Active...)
	return append(out, d.Draft...)
}
