// Package dashboard derives reviewer statistics from stored applications.
package dashboard

import (
	"context"
	"math"
	"time"

	"verity/internal/kyc/models"
	id "verity/pkg/domain"
	dErrors "verity/pkg/domain-errors"
)

// DefaultRecent is the number of entries Recent returns by default.
const DefaultRecent = 5

// Source lists applications, newest first.
type Source interface {
	List(ctx context.Context) ([]*models.Application, error)
}

// Stats is the headline counters block.
type Stats struct {
	TotalVerifications int `json:"totalVerifications"`
	PendingReviews     int `json:"pendingReviews"`
	AutoRejected       int `json:"autoRejected"`
	Approved           int `json:"approved"`
	AvgRiskScore       int `json:"avgRiskScore"`
	VerificationRate   int `json:"verificationRate"`
}

// Bucket is one slice of the risk distribution chart.
type Bucket struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// bucketBound is an inclusive upper bound on the composite score.
type bucketBound struct {
	name  string
	color string
	upTo  int
}

var bucketBounds = []bucketBound{
	{name: "Low Risk", color: "#10B981", upTo: 30},
	{name: "Medium Risk", color: "#F59E0B", upTo: 50},
	{name: "High Risk", color: "#F97316", upTo: 70},
	{name: "Critical", color: "#EF4444", upTo: math.MaxInt},
}

// Activity is one row of the recent activity feed.
type Activity struct {
	ID        id.ApplicationID `json:"id"`
	User      string           `json:"user"`
	Action    string           `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	Status    models.Status    `json:"status"`
	RiskScore int              `json:"riskScore"`
}

// Service computes dashboard views.
type Service struct {
	source Source
}

func New(source Source) *Service {
	return &Service{source: source}
}

// Stats counts applications by outcome. Pending reviews include every
// undecided application and those routed to manual review.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	apps, err := s.list(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	var scored, scoreSum int
	stats.TotalVerifications = len(apps)
	for _, app := range apps {
		switch app.Status {
		case models.StatusPending, models.StatusProcessingInfo, models.StatusReview:
			stats.PendingReviews++
		case models.StatusRejected:
			stats.AutoRejected++
		case models.StatusApproved:
			stats.Approved++
		}
		if app.Result != nil {
			scored++
			scoreSum += app.Result.CompositeScore
		}
	}
	if scored > 0 {
		stats.AvgRiskScore = roundDiv(scoreSum, scored)
	}
	if stats.TotalVerifications > 0 {
		stats.VerificationRate = roundDiv(stats.Approved*100, stats.TotalVerifications)
	}
	return stats, nil
}

// RiskDistribution buckets scored applications by composite score.
func (s *Service) RiskDistribution(ctx context.Context) ([]Bucket, error) {
	apps, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	buckets := make([]Bucket, len(bucketBounds))
	for i, b := range bucketBounds {
		buckets[i] = Bucket{Name: b.name, Color: b.color}
	}
	for _, app := range apps {
		if app.Result == nil {
			continue
		}
		for i, b := range bucketBounds {
			if app.Result.CompositeScore <= b.upTo {
				buckets[i].Value++
				break
			}
		}
	}
	return buckets, nil
}

// Recent returns the n newest applications as activity rows.
func (s *Service) Recent(ctx context.Context, n int) ([]Activity, error) {
	if n <= 0 {
		n = DefaultRecent
	}
	apps, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	models.SortNewestFirst(apps)

	out := make([]Activity, 0, min(n, len(apps)))
	for _, app := range apps[:min(n, len(apps))] {
		user := app.Name()
		if user == "" {
			user = "New User"
		}
		out = append(out, Activity{
			ID:        app.ID,
			User:      user,
			Action:    actionLabel(app.Status),
			Timestamp: app.CreatedAt,
			Status:    app.Status,
			RiskScore: app.RiskScore(),
		})
	}
	return out, nil
}

func (s *Service) list(ctx context.Context) ([]*models.Application, error) {
	apps, err := s.source.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applications")
	}
	return apps, nil
}

func actionLabel(status models.Status) string {
	if status == models.StatusPending {
		return "Application Started"
	}
	return "Verification " + status.String()
}

// roundDiv rounds a/b half up for non-negative operands.
func roundDiv(a, b int) int {
	return int(math.Round(float64(a) / float64(b)))
}
