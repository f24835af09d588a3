package models

type Stats struct {
	RecentLogs []RecentLog `json:"recent_logs"`
	Statistics Statistics  `json:"statistics"`
	Timestamp  Timestamp   `json:"timestamp"`
}

type RecentLog struct {
	ID          int64     `json:"id"`
	ActionType  string    `json:"action_type"`
	EntityType  string    `json:"entity_type"`
	EntityID    *int64    `json:"entity_id"`
	Description string    `json:"description"`
	CreatedAt   Timestamp `json:"created_at"`
}

type Statistics struct {
	TotalClients  int `json:"total_clients"`
	TotalVehicles int `json:"total_vehicles"`
	ServicesToday int `json:"services_today"`
}
