package domain

import (
	"errors"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestNewSeriesEmpty(t *testing.T) {
	_, err := NewSeries("AAPL", nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("NewSeries(nil) error = %v, want ErrNoData", err)
	}
}

func TestNewSeriesOutOfOrder(t *testing.T) {
	bars := []Bar{
		{Symbol: "AAPL", Timestamp: day(1), Close: 100},
		{Symbol: "AAPL", Timestamp: day(0), Close: 101},
	}
	if _, err := NewSeries("AAPL", bars); err == nil {
		t.Fatal("NewSeries accepted out-of-order bars")
	}
}

func TestNewSeriesDuplicateDate(t *testing.T) {
	bars := []Bar{
		{Symbol: "AAPL", Timestamp: day(0), Close: 100},
		{Symbol: "AAPL", Timestamp: day(0), Close: 101},
	}
	if _, err := NewSeries("AAPL", bars); err == nil {
		t.Fatal("NewSeries accepted duplicate timestamps")
	}
}

func TestSeriesAccessors(t *testing.T) {
	bars := []Bar{
		{Symbol: "AAPL", Timestamp: day(0), Close: 100},
		{Symbol: "AAPL", Timestamp: day(1), Close: 102},
		{Symbol: "AAPL", Timestamp: day(2), Close: 101},
	}
	s, err := NewSeries("AAPL", bars)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.Symbol() != "AAPL" {
		t.Errorf("Symbol() = %q, want AAPL", s.Symbol())
	}
	if s.At(1).Close != 102 {
		t.Errorf("At(1).Close = %v, want 102", s.At(1).Close)
	}

	closes := s.Closes()
	if len(closes) != 3 || closes[2] != 101 {
		t.Errorf("Closes() = %v, want [100 102 101]", closes)
	}
	dates := s.Dates()
	if len(dates) != 3 || !dates[0].Equal(day(0)) {
		t.Errorf("Dates()[0] = %v, want %v", dates[0], day(0))
	}
}
