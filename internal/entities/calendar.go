package entities

// SlotStatus annotates one grid slot of a date.
type SlotStatus struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	IsBooked  bool   `json:"is_booked"`
	IsPast    bool   `json:"is_past"`
}

// DaySummary reports the occupancy of one day in a month calendar.
type DaySummary struct {
	Date           string `json:"date"`
	IsAvailable    bool   `json:"is_available"`
	TotalSlots     int    `json:"total_slots"`
	BookedSlots    int    `json:"booked_slots"`
	AvailableSlots int    `json:"available_slots"`
	IsFullyBooked  bool   `json:"is_fully_booked"`
}

// UpcomingSlot is one free slot found by the forward scan.
type UpcomingSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// BookingEmailData feeds the notification email template.
type BookingEmailData struct {
	CustomerName string
	Reference    string
	Date         string
	TimeSlot     string
	Status       string
	CurrentYear  int
	StudioName   string
}
