package models

import (
	"time"

	"github.com/jroosing/dnslens/internal/database"
)

// AnomalyListResponse contains a page of recorded anomalies, newest first.
type AnomalyListResponse struct {
	Anomalies []database.Anomaly `json:"anomalies"`
	Count     int                `json:"count"`
}

// AnomalySummaryResponse groups anomaly counts by kind for a time window.
type AnomalySummaryResponse struct {
	Since  time.Time        `json:"since"`
	Total  int64            `json:"total"`
	ByKind map[string]int64 `json:"by_kind"`
}

// TrafficResponse contains per-minute traffic buckets in ascending order.
type TrafficResponse struct {
	Points []database.TrafficPoint `json:"points"`
	Count  int                     `json:"count"`
}
