package ipo

import (
	"strings"

	"bistscrapper/utils"
)

// Status is the lifecycle stage of an offering.
type Status int

const (
	StatusDraft Status = iota
	StatusNew
	StatusCollectingDemand
	StatusApproved
	StatusInProcess
	StatusCompleted
	StatusUnknown
)

var statusLabels = map[Status]string{
	StatusDraft:            "Taslak",
	StatusNew:              "Yeni",
	StatusCollectingDemand: "Talep Toplanıyor",
	StatusApproved:         "Onaylı",
	StatusInProcess:        "Başvuru Sürecinde",
	StatusCompleted:        "Tamamlandı",
	StatusUnknown:          "Bilinmiyor",
}

func (s Status) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return statusLabels[StatusUnknown]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// Active reports whether offerings in this stage belong to the active list.
func (s Status) Active() bool {
	switch s {
	case StatusCollectingDemand, StatusNew, StatusApproved, StatusInProcess:
		return true
	}
	return false
}

// ParseStatus maps free badge text onto a Status. Empty text is Draft and
// text that matches no known stage is Unknown.
func ParseStatus(text string) Status {
	t := utils.Lower(utils.Normalize(text))
	switch {
	case t == "":
		return StatusDraft
	case strings.Contains(t, "tamamlan"):
		return StatusCompleted
	case strings.Contains(t, "talep topla"):
		return StatusCollectingDemand
	case strings.Contains(t, "taslak"):
		return StatusDraft
	case strings.Contains(t, "başvuru"), strings.Contains(t, "süreç"):
		return StatusInProcess
	case strings.Contains(t, "onay"):
		return StatusApproved
	case strings.Contains(t, "yeni"):
		return StatusNew
	}
	return StatusUnknown
}

// Bucket is one half of the output partition.
type Bucket int

const (
	BucketDraft Bucket = iota
	BucketActive
)

// Classify is the single rule that decides which list a record goes to.
func Classify(s Status) Bucket {
	if s.Active() {
		return BucketActive
	}
	return BucketDraft
}
