package partners

import "time"

// Default entity names used when an order arrives with no identified
// customer. Vietnamese per the shop's locale: "Bán lẻ" is the retail agent,
// "Khách lẻ" the walk-in customer.
const (
	DefaultAgentName    = "Bán lẻ"
	DefaultCustomerName = "Khách lẻ"
)

// Agent is a resale partner.
type Agent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is a buyer contact. AgentName is frozen at write time for
// display; it is not refreshed when the agent is later renamed.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	AgentID   *int64    `json:"agent_id,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
