package testutil

import (
	"github.com/waikato/maiaflow/dataset"
)

// WeatherCSV is a nominal dataset whose target column is "play".
const WeatherCSV = `outlook,temperature,humidity,windy,play
sunny,85,85,false,no
sunny,80,90,true,no
overcast,83,86,false,yes
rainy,70,96,false,yes
rainy,68,80,false,yes
rainy,65,70,true,no
overcast,64,65,true,yes
sunny,72,95,false,no
sunny,69,70,false,yes
rainy,75,80,false,yes`

// WeatherSchema returns the schema of WeatherCSV.
func WeatherSchema() dataset.Schema {
	s, err := dataset.NewSchema(
		dataset.ColumnHeader{Name: "outlook"},
		dataset.ColumnHeader{Name: "temperature", Numeric: true},
		dataset.ColumnHeader{Name: "humidity", Numeric: true},
		dataset.ColumnHeader{Name: "windy"},
		dataset.ColumnHeader{Name: "play", Target: true},
	)
	if err != nil {
		panic(err)
	}
	return s
}

// WeatherRows returns the rows of WeatherCSV, parsed as ReadCSV would.
func WeatherRows() []dataset.Row {
	return []dataset.Row{
		{"sunny", 85.0, 85.0, "false", "no"},
		{"sunny", 80.0, 90.0, "true", "no"},
		{"overcast", 83.0, 86.0, "false", "yes"},
		{"rainy", 70.0, 96.0, "false", "yes"},
		{"rainy", 68.0, 80.0, "false", "yes"},
		{"rainy", 65.0, 70.0, "true", "no"},
		{"overcast", 64.0, 65.0, "true", "yes"},
		{"sunny", 72.0, 95.0, "false", "no"},
		{"sunny", 69.0, 70.0, "false", "yes"},
		{"rainy", 75.0, 80.0, "false", "yes"},
	}
}

// WeatherTable returns WeatherRows as a batch.
func WeatherTable() *dataset.Table {
	t, err := dataset.NewTable(WeatherSchema(), WeatherRows()...)
	if err != nil {
		panic(err)
	}
	return t
}
