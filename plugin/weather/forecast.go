package weather

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DailyForecast folds one day of samples.
type DailyForecast struct {
	Date string // YYYY-MM-DD
	High float64
	Low  float64
	// Sky is the most frequent description of the day; ties go to the earliest.
	Sky string
	// Pop is the highest probability of precipitation of the day.
	Pop float64
}

// AggregateForecast groups samples by calendar day in loc, in date order.
func AggregateForecast(entries []ForecastEntry, loc *time.Location) []DailyForecast {
	if loc == nil {
		loc = time.Local
	}

	type acc struct {
		day       DailyForecast
		skyCounts map[string]int
		skyOrder  []string
	}
	byDate := map[string]*acc{}
	var order []string

	for _, e := range entries {
		date := e.Time.In(loc).Format("2006-01-02")
		a, ok := byDate[date]
		if !ok {
			a = &acc{
				day:       DailyForecast{Date: date, High: e.Temp, Low: e.Temp, Pop: e.Pop},
				skyCounts: map[string]int{},
			}
			byDate[date] = a
			order = append(order, date)
		}
		a.day.High = math.Max(a.day.High, e.Temp)
		a.day.Low = math.Min(a.day.Low, e.Temp)
		a.day.Pop = math.Max(a.day.Pop, e.Pop)
		if e.Description != "" {
			if a.skyCounts[e.Description] == 0 {
				a.skyOrder = append(a.skyOrder, e.Description)
			}
			a.skyCounts[e.Description]++
		}
	}

	out := make([]DailyForecast, 0, len(order))
	for _, date := range order {
		a := byDate[date]
		best := 0
		for _, sky := range a.skyOrder {
			if a.skyCounts[sky] > best {
				best = a.skyCounts[sky]
				a.day.Sky = sky
			}
		}
		out = append(out, a.day)
	}
	return out
}

// FormatCurrent renders current conditions as a sentence.
func FormatCurrent(c *Conditions) string {
	return fmt.Sprintf("The current weather in %s is %s with a temperature of %d°F, humidity is %d%%.",
		c.City, c.Description, int(c.Temp), c.Humidity)
}

// FormatForecast renders daily forecasts, one line per day.
func FormatForecast(location string, days []DailyForecast) string {
	lines := make([]string, 0, len(days))
	for _, d := range days {
		lines = append(lines, fmt.Sprintf("%s: High %d°F, Low %d°F, Sky: %s, Precipitation: %d%%",
			d.Date, int(math.Round(d.High)), int(math.Round(d.Low)), d.Sky, int(math.Round(d.Pop*100))))
	}
	return fmt.Sprintf("Here is the forecast for %s:\n%s", location, strings.Join(lines, "\n"))
}
