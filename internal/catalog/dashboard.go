package catalog

// StatCard is one of the summary tiles at the top of the dashboard.
type StatCard struct {
	Title  string `json:"title"`
	Value  string `json:"value"`
	Change string `json:"change"`
	Icon   string `json:"icon"`
}

type MonthlyRecycling struct {
	Month string  `json:"month"`
	Label string  `json:"label"` // first three letters of Month
	Kg    float64 `json:"kg"`
}

type Activity struct {
	Item   string  `json:"item"`
	Kg     float64 `json:"kg"`
	Points int     `json:"points"`
	Date   string  `json:"date"`
	Status string  `json:"status"`
}

type Dashboard struct {
	Stats          []StatCard         `json:"stats"`
	History        []MonthlyRecycling `json:"history"`
	RecentActivity []Activity         `json:"recentActivity"`
}

func monthly(month string, kg float64) MonthlyRecycling {
	return MonthlyRecycling{Month: month, Label: month[:3], Kg: kg}
}

// DashboardData returns the static recycling dashboard.
func DashboardData() Dashboard {
	return Dashboard{
		Stats: []StatCard{
			{Title: "Total Recycled", Value: "1,234 kg", Change: "+20.1% from last month", Icon: "recycle"},
			{Title: "CO₂ Saved", Value: "3,456 kg", Change: "Equivalent to planting 50 trees", Icon: "leaf"},
			{Title: "Water Saved", Value: "15,000 L", Change: "Enough for 130 people for a day", Icon: "droplets"},
			{Title: "Points Earned", Value: "8,520", Change: "+325 this month", Icon: "award"},
		},
		History: []MonthlyRecycling{
			monthly("January", 186),
			monthly("February", 305),
			monthly("March", 237),
			monthly("April", 173),
			monthly("May", 209),
			monthly("June", 214),
		},
		RecentActivity: []Activity{
			{Item: "Aluminum Cans", Kg: 5, Points: 50, Date: "2 days ago", Status: "Completed"},
			{Item: "Old Laptop", Kg: 2.5, Points: 125, Date: "1 week ago", Status: "Completed"},
			{Item: "Mixed Plastic", Kg: 10, Points: 70, Date: "2 weeks ago", Status: "Completed"},
			{Item: "Copper Wires", Kg: 1.2, Points: 80, Date: "3 weeks ago", Status: "Completed"},
		},
	}
}
