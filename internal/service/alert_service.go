package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jeninefer/commercial-view/internal/domain"
	"github.com/jeninefer/commercial-view/internal/websocket"
	"github.com/rs/zerolog/log"
)

// AlertConfig tunes the three detectors. Zero values are replaced by the
// defaults below.
type AlertConfig struct {
	EWMALambda      float64 // smoothing factor, (0,1]
	EWMAK           float64 // control-limit width in sigmas
	CUSUMSlack      float64 // allowance k, in sigma units
	CUSUMLimit      float64 // decision interval h, in sigma units
	MADZLimit       float64 // modified z-score cutoff
	MinObservations int     // history required before detectors run
	HistoryLimit    int     // how much series history to evaluate over
}

// DefaultAlertConfig returns the conventional control-chart settings.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		EWMALambda:      0.2,
		EWMAK:           3.0,
		CUSUMSlack:      0.5,
		CUSUMLimit:      5.0,
		MADZLimit:       3.5,
		MinObservations: 8,
		HistoryLimit:    90,
	}
}

// AlertService runs the EWMA/CUSUM/MAD-z detectors over persisted KPI
// series, stores whatever fires, and publishes it to subscribers.
type AlertService struct {
	kpiRepo   domain.KPIRepository
	alertRepo domain.AlertRepository
	publisher websocket.EventPublisher
	config    AlertConfig
}

// NewAlertService creates a new AlertService
func NewAlertService(kpiRepo domain.KPIRepository, alertRepo domain.AlertRepository, publisher websocket.EventPublisher, config AlertConfig) *AlertService {
	defaults := DefaultAlertConfig()
	if config.EWMALambda <= 0 || config.EWMALambda > 1 {
		config.EWMALambda = defaults.EWMALambda
	}
	if config.EWMAK <= 0 {
		config.EWMAK = defaults.EWMAK
	}
	if config.CUSUMSlack <= 0 {
		config.CUSUMSlack = defaults.CUSUMSlack
	}
	if config.CUSUMLimit <= 0 {
		config.CUSUMLimit = defaults.CUSUMLimit
	}
	if config.MADZLimit <= 0 {
		config.MADZLimit = defaults.MADZLimit
	}
	if config.MinObservations <= 0 {
		config.MinObservations = defaults.MinObservations
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = defaults.HistoryLimit
	}
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &AlertService{
		kpiRepo:   kpiRepo,
		alertRepo: alertRepo,
		publisher: publisher,
		config:    config,
	}
}

// EvaluateMetric runs all detectors over one metric's series and returns
// the alerts that fired on its latest observation. Short series produce no
// alerts; a metric cannot be anomalous against no history.
func (s *AlertService) EvaluateMetric(metric string) ([]*domain.Alert, error) {
	series, err := s.kpiRepo.GetSeries(metric, s.config.HistoryLimit)
	if err != nil {
		return nil, err
	}
	if len(series) < s.config.MinObservations {
		return nil, nil
	}

	values := make([]float64, len(series))
	for i, snap := range series {
		values[i] = snap.Value
	}
	latest := values[len(values)-1]
	now := time.Now().UTC()

	var fired []*domain.Alert
	if stat, limit, breached := ewmaBreach(values, s.config.EWMALambda, s.config.EWMAK); breached {
		fired = append(fired, s.newAlert(metric, domain.DetectorEWMA, latest, limit,
			fmt.Sprintf("%s EWMA %.4f breached control limit %.4f", metric, stat, limit), stat, now))
	}
	if stat, breached := cusumBreach(values, s.config.CUSUMSlack, s.config.CUSUMLimit); breached {
		fired = append(fired, s.newAlert(metric, domain.DetectorCUSUM, latest, s.config.CUSUMLimit,
			fmt.Sprintf("%s CUSUM statistic %.2f exceeded decision interval %.2f", metric, stat, s.config.CUSUMLimit), stat, now))
	}
	if stat, breached := madZBreach(values, s.config.MADZLimit); breached {
		fired = append(fired, s.newAlert(metric, domain.DetectorMADZ, latest, s.config.MADZLimit,
			fmt.Sprintf("%s modified z-score %.2f exceeded %.2f", metric, stat, s.config.MADZLimit), stat, now))
	}

	for _, alert := range fired {
		stored, err := s.alertRepo.Create(alert)
		if err != nil {
			return nil, err
		}
		s.publisher.Publish(websocket.TopicAlerts, websocket.AlertTriggered(stored))
		log.Warn().
			Str("metric", stored.Metric).
			Str("detector", string(stored.Detector)).
			Float64("value", stored.Value).
			Str("severity", string(stored.Severity)).
			Msg("Alert triggered")
	}

	return fired, nil
}

// EvaluateAll runs EvaluateMetric for every standard metric.
func (s *AlertService) EvaluateAll() ([]*domain.Alert, error) {
	metrics := []string{
		domain.MetricOverdueRatio,
		domain.MetricNPLRatio,
		domain.MetricMaxDPD,
		domain.MetricDefaultCount,
		domain.MetricTotalPastDue,
	}

	var all []*domain.Alert
	for _, metric := range metrics {
		fired, err := s.EvaluateMetric(metric)
		if err != nil {
			return nil, err
		}
		all = append(all, fired...)
	}
	return all, nil
}

// GetAlerts lists stored alerts, newest last.
func (s *AlertService) GetAlerts(includeAcknowledged bool) ([]*domain.Alert, error) {
	return s.alertRepo.GetAll(includeAcknowledged)
}

// Acknowledge marks an alert as handled and notifies subscribers.
func (s *AlertService) Acknowledge(id uuid.UUID) (*domain.Alert, error) {
	alert, err := s.alertRepo.Acknowledge(id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(websocket.TopicAlerts, websocket.AlertAcknowledged(alert))
	return alert, nil
}

func (s *AlertService) newAlert(metric string, detector domain.Detector, value, threshold float64, message string, stat float64, at time.Time) *domain.Alert {
	severity := domain.SeverityWarning
	if threshold != 0 && math.Abs(stat) >= 1.5*math.Abs(threshold) {
		severity = domain.SeverityCritical
	}
	return &domain.Alert{
		ID:          uuid.New(),
		Metric:      metric,
		Detector:    detector,
		Value:       value,
		Threshold:   threshold,
		Severity:    severity,
		Message:     message,
		TriggeredAt: at,
	}
}

// ewmaBreach smooths the series and tests the final EWMA against control
// limits centered on the baseline mean. The baseline excludes the latest
// point so a fresh jump cannot widen its own limits.
func ewmaBreach(values []float64, lambda, k float64) (stat, limit float64, breached bool) {
	baseline := values[:len(values)-1]
	mean, sigma := meanStddev(baseline)
	if sigmaNegligible(sigma, mean) {
		return 0, 0, false
	}

	ewma := values[0]
	for _, v := range values[1:] {
		ewma = lambda*v + (1-lambda)*ewma
	}

	// Asymptotic EWMA standard deviation
	sigmaEWMA := sigma * math.Sqrt(lambda/(2-lambda))
	upper := mean + k*sigmaEWMA
	lower := mean - k*sigmaEWMA

	if ewma > upper {
		return ewma, upper, true
	}
	if ewma < lower {
		return ewma, lower, true
	}
	return ewma, upper, false
}

// cusumBreach accumulates standardized deviations beyond the slack k and
// fires when either one-sided sum crosses the decision interval h.
func cusumBreach(values []float64, k, h float64) (stat float64, breached bool) {
	baseline := values[:len(values)-1]
	mean, sigma := meanStddev(baseline)
	if sigmaNegligible(sigma, mean) {
		return 0, false
	}

	var sHigh, sLow float64
	for _, v := range values {
		z := (v - mean) / sigma
		sHigh = math.Max(0, sHigh+z-k)
		sLow = math.Max(0, sLow-z-k)
	}

	stat = math.Max(sHigh, sLow)
	return stat, stat > h
}

// madZBreach computes the modified z-score of the latest observation
// against the series median and the median absolute deviation.
func madZBreach(values []float64, limit float64) (stat float64, breached bool) {
	med := median(values)

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	mad := median(deviations)
	if mad == 0 {
		return 0, false
	}

	latest := values[len(values)-1]
	stat = 0.6745 * (latest - med) / mad
	return stat, math.Abs(stat) > limit
}

// sigmaNegligible reports whether sigma is indistinguishable from zero at
// float precision relative to the baseline magnitude. A constant series
// accumulates rounding noise on the order of 1e-17, which would otherwise
// collapse the control limits to zero width.
func sigmaNegligible(sigma, mean float64) bool {
	return sigma <= 1e-12*math.Max(math.Abs(mean), 1)
}

func meanStddev(values []float64) (mean, sigma float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sumSq float64
	for _, v := range values {
		sumSq += (v - mean) * (v - mean)
	}
	sigma = math.Sqrt(sumSq / float64(len(values)))
	return mean, sigma
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
