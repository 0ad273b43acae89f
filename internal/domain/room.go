package domain

type (
	// RoomID is the externally supplied grouping key for a call, by convention
	// the interview id. Rooms are never stored; the id is only a routing key.
	RoomID string

	// ConnID identifies one live transport connection. Assigned at connect
	// time, meaningless after disconnect.
	ConnID string
)
