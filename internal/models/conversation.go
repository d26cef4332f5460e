package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Counts tallies turns by role.
type Counts struct {
	Total     int `json:"total"`
	User      int `json:"user"`
	Assistant int `json:"assistant"`
}

func CountTurns(turns []Turn) Counts {
	c := Counts{Total: len(turns)}
	for _, t := range turns {
		switch t.Role {
		case RoleUser:
			c.User++
		case RoleAssistant:
			c.Assistant++
		}
	}
	return c
}
