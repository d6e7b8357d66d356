// FilePath: internal/droneservice/droneservice.stats.go
package droneservice

import (
	"context"
	"math"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/models"
)

// FlightStatistics aggregates completed flights for one drone
type FlightStatistics struct {
	TotalFlights    int     `json:"total_flights"`
	TotalFlightTime float64 `json:"total_flight_time"`
	AvgFlightTime   float64 `json:"avg_flight_time"`
	TotalDistance   float64 `json:"total_distance"`
	MaxAltitude     float64 `json:"max_altitude"`
	MaxSpeed        float64 `json:"max_speed"`
}

// FlightPathData is the per-flight view served by the path endpoint
type FlightPathData struct {
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time"`
	Duration    float64           `json:"duration"`
	Path        models.FlightPath `json:"path"`
	Distance    float64           `json:"distance"`
	MaxAltitude float64           `json:"max_altitude"`
	MaxSpeed    float64           `json:"max_speed"`
	ControlMode string            `json:"control_mode"`
}

// ReportQuery bounds a flight report, decoded from query parameters
type ReportQuery struct {
	StartDate *time.Time `schema:"start_date"`
	EndDate   *time.Time `schema:"end_date"`
}

// FlightReport groups completed flights per day inside a window
type FlightReport struct {
	Period  ReportPeriod     `json:"period"`
	Flights int              `json:"flights"`
	Data    []DailyFlightRow `json:"data"`
}

type ReportPeriod struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type DailyFlightRow struct {
	Date        string  `json:"date"`
	Flights     int     `json:"flights"`
	FlightTime  float64 `json:"flight_time"`
	Distance    float64 `json:"distance"`
	MaxAltitude float64 `json:"max_altitude"`
}

// ListFlightLogs returns the drone's flight history, newest first
func (s *Service) ListFlightLogs(ctx context.Context, droneID string, offset, limit int) ([]*models.FlightLog, error) {
	if _, err := s.authorizedDrone(ctx, droneID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.FlightLogs.ListByDrone(ctx, droneID, offset, limit)
}

// GetFlightPath returns path and statistics for one flight log
func (s *Service) GetFlightPath(ctx context.Context, flightLogID string) (*FlightPathData, error) {
	flightLog, err := s.FlightLogs.Get(ctx, flightLogID)
	if err != nil {
		return nil, err
	}

	// The guard applies to the owning drone
	if _, err := s.authorizedDrone(ctx, flightLog.DroneID); err != nil {
		return nil, err
	}

	return &FlightPathData{
		StartTime:   flightLog.StartTime,
		EndTime:     flightLog.EndTime,
		Duration:    flightLog.Duration,
		Path:        flightLog.Path,
		Distance:    flightLog.Distance,
		MaxAltitude: flightLog.MaxAltitude,
		MaxSpeed:    flightLog.MaxSpeed,
		ControlMode: flightLog.ControlMode,
	}, nil
}

// GetFlightStatistics aggregates all completed flights for a drone
func (s *Service) GetFlightStatistics(ctx context.Context, droneID string) (*FlightStatistics, error) {
	if _, err := s.authorizedDrone(ctx, droneID); err != nil {
		return nil, err
	}

	logs, err := s.FlightLogs.ListCompleted(ctx, droneID, nil, nil)
	if err != nil {
		return nil, err
	}

	stats := &FlightStatistics{}
	if len(logs) == 0 {
		return stats, nil
	}

	stats.TotalFlights = len(logs)
	for _, log := range logs {
		stats.TotalFlightTime += log.Duration
		stats.TotalDistance += log.Distance
		stats.MaxAltitude = math.Max(stats.MaxAltitude, log.MaxAltitude)
		stats.MaxSpeed = math.Max(stats.MaxSpeed, log.MaxSpeed)
	}
	stats.AvgFlightTime = stats.TotalFlightTime / float64(stats.TotalFlights)

	return stats, nil
}

// GenerateFlightReport groups completed flights per day within the window
func (s *Service) GenerateFlightReport(ctx context.Context, droneID string, query ReportQuery) (*FlightReport, error) {
	if _, err := s.authorizedDrone(ctx, droneID); err != nil {
		return nil, err
	}

	logs, err := s.FlightLogs.ListCompleted(ctx, droneID, query.StartDate, query.EndDate)
	if err != nil {
		return nil, err
	}

	report := &FlightReport{
		Period:  ReportPeriod{Start: query.StartDate, End: query.EndDate},
		Flights: len(logs),
		Data:    []DailyFlightRow{},
	}

	byDay := map[string]*DailyFlightRow{}
	var order []string
	for _, log := range logs {
		day := log.StartTime.Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &DailyFlightRow{Date: day}
			byDay[day] = row
			order = append(order, day)
		}
		row.Flights++
		row.FlightTime += log.Duration
		row.Distance += log.Distance
		row.MaxAltitude = math.Max(row.MaxAltitude, log.MaxAltitude)
	}
	for _, day := range order {
		report.Data = append(report.Data, *byDay[day])
	}

	return report, nil
}
